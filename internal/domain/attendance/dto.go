package attendance

import (
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type ImportFactRequest struct {
	GuardID string `json:"guard_id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`

	DaysWorked     int `json:"days_worked"`
	DaysAbsent     int `json:"days_absent"`
	MedicalDays    int `json:"medical_days"`
	VacationDays   int `json:"vacation_days"`
	UnpaidDays     int `json:"unpaid_days"`
	TotalDaysMonth int `json:"total_days_month"`
	ScheduledDays  int `json:"scheduled_days"`

	SundaysWorked    int `json:"sundays_worked"`
	SundaysScheduled int `json:"sundays_scheduled"`

	NormalHours      decimal.Decimal `json:"normal_hours"`
	Overtime50Hours  decimal.Decimal `json:"overtime_50_hours"`
	Overtime100Hours decimal.Decimal `json:"overtime_100_hours"`
	HolidayHours     decimal.Decimal `json:"holiday_hours"`
	LateHours        decimal.Decimal `json:"late_hours"`

	Days []DayDetail `json:"days,omitempty"`
}

func (r *ImportFactRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.GuardID) {
		errs = append(errs, validator.ValidationError{Field: "guard_id", Message: "is required"})
	}
	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "invalid year/month"})
	}
	if r.TotalDaysMonth < 28 || r.TotalDaysMonth > 31 {
		errs = append(errs, validator.ValidationError{Field: "total_days_month", Message: "must be between 28 and 31"})
	}
	for _, pair := range []struct {
		field string
		v     int
	}{
		{"days_worked", r.DaysWorked},
		{"days_absent", r.DaysAbsent},
		{"medical_days", r.MedicalDays},
		{"vacation_days", r.VacationDays},
		{"unpaid_days", r.UnpaidDays},
		{"scheduled_days", r.ScheduledDays},
	} {
		if pair.v < 0 {
			errs = append(errs, validator.ValidationError{Field: pair.field, Message: "must be non-negative"})
		}
	}
	if r.DaysWorked+r.VacationDays+r.MedicalDays+r.UnpaidDays+r.DaysAbsent > r.TotalDaysMonth {
		errs = append(errs, validator.ValidationError{Field: "days_worked", Message: "day counts exceed days in month"})
	}
	for _, pair := range []struct {
		field string
		v     decimal.Decimal
	}{
		{"normal_hours", r.NormalHours},
		{"overtime_50_hours", r.Overtime50Hours},
		{"overtime_100_hours", r.Overtime100Hours},
		{"holiday_hours", r.HolidayHours},
		{"late_hours", r.LateHours},
	} {
		if pair.v.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: pair.field, Message: "must be non-negative"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type FactResponse struct {
	ID      string `json:"id"`
	GuardID string `json:"guard_id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`

	DaysWorked     int `json:"days_worked"`
	DaysAbsent     int `json:"days_absent"`
	MedicalDays    int `json:"medical_days"`
	VacationDays   int `json:"vacation_days"`
	UnpaidDays     int `json:"unpaid_days"`
	TotalDaysMonth int `json:"total_days_month"`
	ScheduledDays  int `json:"scheduled_days"`

	SundaysWorked    int `json:"sundays_worked"`
	SundaysScheduled int `json:"sundays_scheduled"`

	NormalHours      decimal.Decimal `json:"normal_hours"`
	Overtime50Hours  decimal.Decimal `json:"overtime_50_hours"`
	Overtime100Hours decimal.Decimal `json:"overtime_100_hours"`
	HolidayHours     decimal.Decimal `json:"holiday_hours"`
	LateHours        decimal.Decimal `json:"late_hours"`

	Days   []DayDetail `json:"days,omitempty"`
	Source string      `json:"source"`
}

type ImportFactsRequest struct {
	Facts []ImportFactRequest `json:"facts"`
}

func (r *ImportFactsRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.Facts) == 0 {
		errs = append(errs, validator.ValidationError{Field: "facts", Message: "at least one fact is required"})
		return errs
	}
	for i, f := range r.Facts {
		if err := f.Validate(); err != nil {
			errs = append(errs, validator.ValidationError{Field: validator.Itoa(i), Message: err.Error()})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
