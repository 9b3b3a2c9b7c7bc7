package payslip

import (
	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/shopspring/decimal"
)

var (
	quarter = decimal.NewFromFloat(0.25)
	zero    = decimal.Zero
)

// round applies the statutory rounding rule: half away from zero, to whole
// pesos (CLP has no minor unit). Applied exactly once per final line item;
// intermediate math is never rounded.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Simulate computes the gross-to-net breakdown for one guard and period
// against the given legal parameter snapshot. It is a pure function: no
// storage, no clock, no ambient configuration. Identical inputs always
// produce an identical breakdown.
//
// The deduction pipeline order is fixed: taxable gross composition,
// non-taxable gross, pension, health, unemployment insurance, income tax,
// net, employer cost. Reorderings change rounding outcomes and are not
// permitted.
func Simulate(in payslip.Input, snap legalparams.Snapshot) (payslip.Breakdown, error) {
	in = in.Normalize()

	afp, ok := snap.AFPByCode(in.AFPCode)
	if !ok {
		return payslip.Breakdown{}, legalparams.ErrUnknownAFPCode
	}
	afcRate, ok := snap.AFCRates[in.ContractType]
	if !ok {
		return payslip.Breakdown{}, legalparams.ErrUnknownContract
	}

	var b payslip.Breakdown

	// 1. Taxable gross composition.
	dailyHours := attendance.DailyHours(in.MonthlyHours)
	b.WorkedFraction = attendance.WorkedFraction(in.Fact, dailyHours)
	b.ProratedBase = round(in.BaseSalary.Mul(b.WorkedFraction))

	hourlyRate := in.BaseSalary.Div(in.MonthlyHours)
	overtime := in.Fact.Overtime50Hours.Mul(hourlyRate).Mul(snap.Overtime50Multiplier).
		Add(in.Fact.Overtime100Hours.Mul(hourlyRate).Mul(snap.Overtime100Multiplier)).
		Add(in.Fact.HolidayHours.Mul(hourlyRate).Mul(snap.Overtime100Multiplier))
	b.OvertimePay = round(overtime)

	b.Commissions = round(in.Commissions)
	b.OtherTaxable = round(in.OtherTaxable)

	for _, bonus := range in.Bonuses {
		if bonus.Taxable {
			b.TaxableBonuses = b.TaxableBonuses.Add(round(bonus.Amount))
		} else {
			b.NonTaxableBonuses = b.NonTaxableBonuses.Add(round(bonus.Amount))
		}
	}

	switch in.GratificationPolicy {
	case salary.GratificationAutomatic:
		base := b.ProratedBase.Add(b.OvertimePay).Add(b.Commissions)
		grat := base.Mul(quarter)
		if grat.GreaterThan(snap.GratificationMonthlyCap) {
			grat = snap.GratificationMonthlyCap
		}
		b.Gratification = round(grat)
	case salary.GratificationCustom:
		b.Gratification = round(in.CustomGratification)
	default:
		b.Gratification = zero
	}

	b.TaxableGross = b.ProratedBase.
		Add(b.Gratification).
		Add(b.OvertimePay).
		Add(b.Commissions).
		Add(b.OtherTaxable).
		Add(b.TaxableBonuses)

	// 2. Non-taxable gross: flat allowances prorate with the worked fraction,
	// excluded from every deduction base below.
	b.MealAllowance = round(in.MealAllowance.Mul(b.WorkedFraction))
	b.TransportAllowance = round(in.TransportAllowance.Mul(b.WorkedFraction))
	b.OtherNonTaxable = round(in.OtherNonTaxable)
	b.NonTaxableGross = b.MealAllowance.
		Add(b.TransportAllowance).
		Add(b.OtherNonTaxable).
		Add(b.NonTaxableBonuses)

	// 3. Pension, capped at the maximum taxable base.
	contributionBase := decimal.Min(b.TaxableGross, snap.ContributionCapCLP())
	b.PensionDeduction = round(contributionBase.Mul(afp.EmployeeRate))

	// 4. Health: public scheme pays the statutory rate; private plans may
	// exceed it but never fall below.
	healthRate := snap.HealthPublicRate
	if in.HealthScheme == salary.HealthIsapre && in.IsaprePlanRate.GreaterThan(healthRate) {
		healthRate = in.IsaprePlanRate
	}
	b.HealthDeduction = round(contributionBase.Mul(healthRate))

	// 5. Unemployment insurance, employee side, with its own cap.
	afcBase := decimal.Min(b.TaxableGross, snap.AFCCapCLP())
	b.AFCDeduction = round(afcBase.Mul(afcRate.EmployeeRate))

	// 6. Income tax: marginal brackets over taxable gross minus pension and
	// health, with dependent allowances subtracted before the lookup.
	taxBase := b.TaxableGross.Sub(b.PensionDeduction).Sub(b.HealthDeduction)
	if in.FamilyDependents > 0 {
		taxBase = taxBase.Sub(snap.DependentAllowance.Mul(decimal.NewFromInt(int64(in.FamilyDependents))))
	}
	b.IncomeTax = round(marginalTax(taxBase, snap.TaxBrackets))

	for _, d := range in.ExtraDeductions {
		b.ExtraDeductions = b.ExtraDeductions.Add(round(d.Amount))
	}

	b.TotalDeductions = b.PensionDeduction.
		Add(b.HealthDeduction).
		Add(b.AFCDeduction).
		Add(b.IncomeTax).
		Add(b.ExtraDeductions)

	// 7. Net salary. A negative result is flagged for downstream approval,
	// not silently absorbed.
	b.NetSalary = b.TaxableGross.Add(b.NonTaxableGross).Sub(b.TotalDeductions)
	if b.NetSalary.IsNegative() {
		b.NegativeNet = true
		b.NetSalary = zero
	}

	// 8. Employer cost.
	b.EmployerAFC = round(afcBase.Mul(afcRate.EmployerRate))
	b.EmployerSIS = round(contributionBase.Mul(afp.EmployerSISRate))
	b.EmployerAccident = round(contributionBase.Mul(snap.AccidentInsuranceRate))
	b.EmployerCost = b.TaxableGross.
		Add(b.EmployerAFC).
		Add(b.EmployerSIS).
		Add(b.EmployerAccident)
	if in.WithEmployerProvisions {
		b.VacationProvision = round(b.TaxableGross.Mul(snap.VacationProvisionRate))
		b.SeveranceProvision = round(b.TaxableGross.Mul(snap.SeveranceProvisionRate))
		b.EmployerCost = b.EmployerCost.Add(b.VacationProvision).Add(b.SeveranceProvision)
	}

	return b, nil
}

// marginalTax applies progressive brackets: each bracket's excess is taxed at
// its own marginal rate and the portions are summed. Never a single flat
// multiplication.
func marginalTax(base decimal.Decimal, brackets []legalparams.TaxBracket) decimal.Decimal {
	if base.IsNegative() || base.IsZero() {
		return zero
	}
	tax := zero
	for _, br := range brackets {
		if base.LessThanOrEqual(br.FromCLP) {
			break
		}
		upper := base
		if br.ToCLP != nil && upper.GreaterThan(*br.ToCLP) {
			upper = *br.ToCLP
		}
		tax = tax.Add(upper.Sub(br.FromCLP).Mul(br.MarginalRate))
	}
	return tax
}
