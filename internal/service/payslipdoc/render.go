package payslipdoc

import (
	"bytes"
	"fmt"

	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

var monthNames = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Render produces a one-page liquidación de sueldo PDF for a settlement.
// Pure over its inputs: stored breakdown values, never a re-simulation.
func Render(s settlement.Settlement, profile guard.PayoutProfile) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Liquidacion de Sueldo")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Trabajador: %s", profile.FullName))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("RUT: %s", profile.LegalID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Periodo: %s %d", monthName(s.Month), s.Year))
	pdf.Ln(10)

	b := s.Breakdown

	section(pdf, "Haberes Imponibles")
	line(pdf, "Sueldo base proporcional", b.ProratedBase)
	line(pdf, "Gratificacion", b.Gratification)
	line(pdf, "Horas extra", b.OvertimePay)
	line(pdf, "Comisiones", b.Commissions)
	line(pdf, "Bonos imponibles", b.TaxableBonuses)
	line(pdf, "Otros imponibles", b.OtherTaxable)
	total(pdf, "Total imponible", b.TaxableGross)

	section(pdf, "Haberes No Imponibles")
	line(pdf, "Colacion", b.MealAllowance)
	line(pdf, "Movilizacion", b.TransportAllowance)
	line(pdf, "Bonos no imponibles", b.NonTaxableBonuses)
	line(pdf, "Otros no imponibles", b.OtherNonTaxable)
	total(pdf, "Total no imponible", b.NonTaxableGross)

	section(pdf, "Descuentos")
	line(pdf, "Prevision (AFP)", b.PensionDeduction)
	line(pdf, "Salud", b.HealthDeduction)
	line(pdf, "Seguro de cesantia", b.AFCDeduction)
	line(pdf, "Impuesto unico", b.IncomeTax)
	line(pdf, "Otros descuentos", b.ExtraDeductions)
	total(pdf, "Total descuentos", b.TotalDeductions)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(120, 9, "LIQUIDO A PAGAR", "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 9, clp(b.NetSalary), "T", 1, "R", false, 0, "")

	if b.NegativeNet {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 6, "Advertencia: los descuentos superan los haberes del periodo.")
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render payslip pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}

func line(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	pdf.CellFormat(120, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, clp(amount), "", 1, "R", false, 0, "")
}

func total(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 7, label, "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, clp(amount), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func clp(d decimal.Decimal) string {
	return "$ " + d.StringFixed(0)
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("%d", m)
	}
	return monthNames[m-1]
}
