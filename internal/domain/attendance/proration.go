package attendance

import "github.com/shopspring/decimal"

var daysPerMonth = decimal.NewFromInt(30)

// DailyHours converts a structure's monthly hours to a daily figure using the
// statutory 30-day month.
func DailyHours(monthlyHours decimal.Decimal) decimal.Decimal {
	if !monthlyHours.IsPositive() {
		return decimal.Zero
	}
	return monthlyHours.Div(daysPerMonth)
}

// CreditedDays returns the days credited as worked for proration: days
// actually worked plus paid leave (vacation and legally paid medical leave),
// minus the day-equivalent of late-arrival hours. Unpaid leave and plain
// absences never count. The result is clamped to [0, TotalDaysMonth].
func CreditedDays(f Fact, dailyHours decimal.Decimal) decimal.Decimal {
	credited := decimal.NewFromInt(int64(f.DaysWorked + f.VacationDays + f.MedicalDays))

	if f.LateHours.IsPositive() && dailyHours.IsPositive() {
		credited = credited.Sub(f.LateHours.Div(dailyHours))
	}

	if credited.IsNegative() {
		return decimal.Zero
	}
	total := decimal.NewFromInt(int64(f.TotalDaysMonth))
	if credited.GreaterThan(total) {
		return total
	}
	return credited
}

// WorkedFraction is the proportion of the month credited as worked, used to
// prorate base salary and flat allowances. Always in [0, 1]. Overtime and
// holiday hours are additive on top of the prorated base and are not part of
// the fraction.
func WorkedFraction(f Fact, dailyHours decimal.Decimal) decimal.Decimal {
	if f.TotalDaysMonth <= 0 {
		return decimal.Zero
	}
	return CreditedDays(f, dailyHours).Div(decimal.NewFromInt(int64(f.TotalDaysMonth)))
}

// Reconcile merges an incoming imported fact into an existing one matched by
// natural key (guard + period). The incoming fact replaces all counters; the
// stored identity and creation timestamp survive. A nil existing fact means
// plain insertion.
func Reconcile(existing *Fact, incoming Fact) Fact {
	if existing == nil {
		incoming.Source = SourceImported
		return incoming
	}
	merged := incoming
	merged.ID = existing.ID
	merged.CompanyID = existing.CompanyID
	merged.GuardID = existing.GuardID
	merged.Year = existing.Year
	merged.Month = existing.Month
	merged.CreatedAt = existing.CreatedAt
	merged.Source = SourceImported
	return merged
}
