package salary

import (
	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/shopspring/decimal"
)

var percentBase = decimal.NewFromInt(100)

// EvaluateBonuses turns a guard's active bonus assignments into concrete
// payslip lines for the period. Pure function: the assignment window filtering
// already happened at resolution time.
//
//   - fixed: the catalog amount, or the assignment's override.
//   - percent: the percentage applied to the base salary.
//   - conditional: the fixed amount, paid only when the attendance fact shows
//     at least the minimum worked days.
//
// Assignments pointing at an inactive or missing definition are skipped.
func EvaluateBonuses(assignments []salary.BonusAssignment, baseSalary decimal.Decimal, fact attendance.Fact) []payslip.BonusLine {
	var lines []payslip.BonusLine
	for _, a := range assignments {
		def := a.Definition
		if def == nil || !def.IsActive {
			continue
		}

		var amount decimal.Decimal
		switch def.Kind {
		case salary.BonusFixed:
			amount = def.Amount
			if a.OverrideAmount != nil {
				amount = *a.OverrideAmount
			}
		case salary.BonusPercent:
			percent := def.Percent
			if a.OverridePercent != nil {
				percent = *a.OverridePercent
			}
			amount = baseSalary.Mul(percent).Div(percentBase)
		case salary.BonusConditional:
			if fact.DaysWorked < def.MinDays {
				continue
			}
			amount = def.Amount
			if a.OverrideAmount != nil {
				amount = *a.OverrideAmount
			}
		default:
			continue
		}

		if !amount.IsPositive() {
			continue
		}
		lines = append(lines, payslip.BonusLine{
			Name:    def.Name,
			Amount:  amount,
			Taxable: def.Taxable,
		})
	}
	return lines
}
