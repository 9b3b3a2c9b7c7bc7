package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/Cryptobal/opai-sub012/internal/domain/export"
	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

// All export files share the same shape: `;` delimiter, one fixed header row,
// rows sorted by guard legal id, UTF-8, `\n` line endings, CLP amounts as
// integers. Serializers are pure: persisted settlements in, bytes out, no
// re-simulation ever.

const delimiter = ";"

var (
	contributionsHeader = []string{
		"rut", "nombre", "base_imponible", "afp_codigo", "afp_monto",
		"salud_codigo", "salud_monto", "afc_monto",
	}
	ledgerHeader = []string{
		"rut", "nombre", "sueldo_proporcional", "gratificacion", "horas_extra",
		"comisiones", "bonos_imponibles", "otros_imponibles", "total_imponible",
		"colacion", "movilizacion", "bonos_no_imponibles", "otros_no_imponibles",
		"total_no_imponible", "prevision", "salud", "seguro_cesantia", "impuesto",
		"otros_descuentos", "total_descuentos", "liquido",
	}
	bankHeader = []string{
		"rut", "nombre", "banco_codigo", "tipo_cuenta", "numero_cuenta",
		"monto", "email", "glosa",
	}
)

// BuildContributions renders the social security declaration.
func BuildContributions(runID string, settlements []settlement.Settlement, profiles map[string]guard.PayoutProfile) export.File {
	report := export.Report{RunID: runID, Kind: export.KindContributions}
	var buf bytes.Buffer
	writeRow(&buf, contributionsHeader)

	for _, s := range sortedByLegalID(settlements) {
		profile, ok := profiles[s.GuardID]
		if !ok {
			report.Omissions = append(report.Omissions, omission(s, "guard profile not found"))
			continue
		}
		if s.AFPCode == "" {
			report.Omissions = append(report.Omissions, omission(s, "missing afp code"))
			continue
		}
		b := s.Breakdown
		writeRow(&buf, []string{
			profile.LegalID,
			profile.FullName,
			clp(b.TaxableGross),
			s.AFPCode,
			clp(b.PensionDeduction),
			s.HealthScheme,
			clp(b.HealthDeduction),
			clp(b.AFCDeduction),
		})
		report.Rows++
	}

	return export.File{
		Name:    fileName(runID, export.KindContributions),
		Content: buf.Bytes(),
		Report:  report,
	}
}

// BuildLedger renders the accounting ledger with every line item.
func BuildLedger(runID string, settlements []settlement.Settlement, profiles map[string]guard.PayoutProfile) export.File {
	report := export.Report{RunID: runID, Kind: export.KindLedger}
	var buf bytes.Buffer
	writeRow(&buf, ledgerHeader)

	for _, s := range sortedByLegalID(settlements) {
		profile, ok := profiles[s.GuardID]
		if !ok {
			report.Omissions = append(report.Omissions, omission(s, "guard profile not found"))
			continue
		}
		b := s.Breakdown
		writeRow(&buf, []string{
			profile.LegalID,
			profile.FullName,
			clp(b.ProratedBase),
			clp(b.Gratification),
			clp(b.OvertimePay),
			clp(b.Commissions),
			clp(b.TaxableBonuses),
			clp(b.OtherTaxable),
			clp(b.TaxableGross),
			clp(b.MealAllowance),
			clp(b.TransportAllowance),
			clp(b.NonTaxableBonuses),
			clp(b.OtherNonTaxable),
			clp(b.NonTaxableGross),
			clp(b.PensionDeduction),
			clp(b.HealthDeduction),
			clp(b.AFCDeduction),
			clp(b.IncomeTax),
			clp(b.ExtraDeductions),
			clp(b.TotalDeductions),
			clp(b.NetSalary),
		})
		report.Rows++
	}

	return export.File{
		Name:    fileName(runID, export.KindLedger),
		Content: buf.Bytes(),
		Report:  report,
	}
}

// BuildBank renders the transfer batch. Settlements without complete bank
// data are omitted and reported.
func BuildBank(runID string, year, month int, settlements []settlement.Settlement, profiles map[string]guard.PayoutProfile) export.File {
	report := export.Report{RunID: runID, Kind: export.KindBank}
	var buf bytes.Buffer
	writeRow(&buf, bankHeader)

	concept := fmt.Sprintf("Sueldo %04d-%02d", year, month)

	for _, s := range sortedByLegalID(settlements) {
		profile, ok := profiles[s.GuardID]
		if !ok {
			report.Omissions = append(report.Omissions, omission(s, "guard profile not found"))
			continue
		}
		if !profile.HasBankAccount() {
			report.Omissions = append(report.Omissions, omission(s, "missing bank account"))
			continue
		}
		email := ""
		if profile.Email != nil {
			email = *profile.Email
		}
		writeRow(&buf, []string{
			profile.LegalID,
			profile.FullName,
			*profile.BankCode,
			*profile.AccountType,
			*profile.AccountNumber,
			clp(s.Breakdown.NetSalary),
			email,
			concept,
		})
		report.Rows++
	}

	return export.File{
		Name:    fileName(runID, export.KindBank),
		Content: buf.Bytes(),
		Report:  report,
	}
}

func sortedByLegalID(settlements []settlement.Settlement) []settlement.Settlement {
	sorted := make([]settlement.Settlement, len(settlements))
	copy(sorted, settlements)
	sort.Slice(sorted, func(i, j int) bool {
		return legalID(sorted[i]) < legalID(sorted[j])
	})
	return sorted
}

func legalID(s settlement.Settlement) string {
	if s.GuardLegalID != nil {
		return *s.GuardLegalID
	}
	return ""
}

func omission(s settlement.Settlement, reason string) export.Omission {
	return export.Omission{
		GuardID:      s.GuardID,
		GuardLegalID: legalID(s),
		Reason:       reason,
	}
}

func writeRow(buf *bytes.Buffer, fields []string) {
	buf.WriteString(strings.Join(fields, delimiter))
	buf.WriteByte('\n')
}

// clp renders a whole-peso amount as a plain integer.
func clp(d decimal.Decimal) string {
	return d.StringFixed(0)
}

func fileName(runID string, kind export.Kind) string {
	return fmt.Sprintf("%s_%s.csv", kind, runID)
}
