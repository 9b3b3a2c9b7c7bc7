package payslip

import (
	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/shopspring/decimal"
)

// BonusLine is an already-evaluated bonus contribution for the period.
type BonusLine struct {
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	Taxable bool            `json:"taxable"`
}

// DeductionLine is an ad-hoc deduction supplied by the caller, e.g. a
// court-ordered garnishment.
type DeductionLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Input is the fully explicit simulation input. Every field is enumerated;
// defaults are applied by Normalize at the boundary, never inside the
// calculation.
type Input struct {
	BaseSalary         decimal.Decimal
	MealAllowance      decimal.Decimal
	TransportAllowance decimal.Decimal

	GratificationPolicy salary.GratificationPolicy
	CustomGratification decimal.Decimal

	HealthScheme   salary.HealthScheme
	IsaprePlanRate decimal.Decimal

	AFPCode      string
	ContractType legalparams.ContractType

	MonthlyHours     decimal.Decimal
	FamilyDependents int

	Bonuses     []BonusLine
	Commissions decimal.Decimal

	OtherTaxable    decimal.Decimal
	OtherNonTaxable decimal.Decimal

	ExtraDeductions []DeductionLine

	Fact attendance.Fact

	WithEmployerProvisions bool
}

// DefaultMonthlyHours is the statutory full-time month (45h week).
var DefaultMonthlyHours = decimal.NewFromInt(180)

// Normalize fills boundary defaults.
func (in Input) Normalize() Input {
	if !in.MonthlyHours.IsPositive() {
		in.MonthlyHours = DefaultMonthlyHours
	}
	if in.GratificationPolicy == "" {
		in.GratificationPolicy = salary.GratificationNone
	}
	if in.HealthScheme == "" {
		in.HealthScheme = salary.HealthFonasa
	}
	if in.ContractType == "" {
		in.ContractType = legalparams.ContractIndefinite
	}
	return in
}

// Breakdown is the computed gross-to-net result. All amounts are whole CLP,
// rounded once per line item.
type Breakdown struct {
	WorkedFraction decimal.Decimal `json:"worked_fraction"`

	ProratedBase   decimal.Decimal `json:"prorated_base"`
	Gratification  decimal.Decimal `json:"gratification"`
	OvertimePay    decimal.Decimal `json:"overtime_pay"`
	Commissions    decimal.Decimal `json:"commissions"`
	TaxableBonuses decimal.Decimal `json:"taxable_bonuses"`
	OtherTaxable   decimal.Decimal `json:"other_taxable"`
	TaxableGross   decimal.Decimal `json:"taxable_gross"`

	MealAllowance      decimal.Decimal `json:"meal_allowance"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`
	NonTaxableBonuses  decimal.Decimal `json:"non_taxable_bonuses"`
	OtherNonTaxable    decimal.Decimal `json:"other_non_taxable"`
	NonTaxableGross    decimal.Decimal `json:"non_taxable_gross"`

	PensionDeduction decimal.Decimal `json:"pension_deduction"`
	HealthDeduction  decimal.Decimal `json:"health_deduction"`
	AFCDeduction     decimal.Decimal `json:"afc_deduction"`
	IncomeTax        decimal.Decimal `json:"income_tax"`
	ExtraDeductions  decimal.Decimal `json:"extra_deductions"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`

	NetSalary   decimal.Decimal `json:"net_salary"`
	NegativeNet bool            `json:"negative_net"`

	EmployerAFC        decimal.Decimal `json:"employer_afc"`
	EmployerSIS        decimal.Decimal `json:"employer_sis"`
	EmployerAccident   decimal.Decimal `json:"employer_accident"`
	VacationProvision  decimal.Decimal `json:"vacation_provision"`
	SeveranceProvision decimal.Decimal `json:"severance_provision"`
	EmployerCost       decimal.Decimal `json:"employer_cost"`
}
