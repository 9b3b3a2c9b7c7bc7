package payslip

import (
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// SimulateAttendance is the attendance slice of an ad-hoc simulation. A zero
// value means a full 30-day month fully worked.
type SimulateAttendance struct {
	DaysWorked     int `json:"days_worked"`
	DaysAbsent     int `json:"days_absent"`
	MedicalDays    int `json:"medical_days"`
	VacationDays   int `json:"vacation_days"`
	UnpaidDays     int `json:"unpaid_days"`
	TotalDaysMonth int `json:"total_days_month"`

	Overtime50Hours  decimal.Decimal `json:"overtime_50_hours"`
	Overtime100Hours decimal.Decimal `json:"overtime_100_hours"`
	HolidayHours     decimal.Decimal `json:"holiday_hours"`
	LateHours        decimal.Decimal `json:"late_hours"`
}

// SimulateRequest is an ad-hoc what-if simulation: nothing is persisted and
// no salary structure is required.
type SimulateRequest struct {
	AsOf string `json:"as_of,omitempty"`

	BaseSalary         decimal.Decimal `json:"base_salary"`
	MealAllowance      decimal.Decimal `json:"meal_allowance"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`

	GratificationPolicy string          `json:"gratification_policy,omitempty"`
	CustomGratification decimal.Decimal `json:"custom_gratification"`

	HealthScheme   string          `json:"health_scheme,omitempty"`
	IsaprePlanRate decimal.Decimal `json:"isapre_plan_rate"`

	AFPCode      string `json:"afp_code"`
	ContractType string `json:"contract_type,omitempty"`

	MonthlyHours     *decimal.Decimal `json:"monthly_hours,omitempty"`
	FamilyDependents int              `json:"family_dependents"`

	Bonuses     []BonusLine     `json:"bonuses,omitempty"`
	Commissions decimal.Decimal `json:"commissions"`

	OtherTaxable    decimal.Decimal `json:"other_taxable"`
	OtherNonTaxable decimal.Decimal `json:"other_non_taxable"`

	ExtraDeductions []DeductionLine `json:"extra_deductions,omitempty"`

	Attendance SimulateAttendance `json:"attendance"`

	WithEmployerProvisions bool `json:"with_employer_provisions"`
}

func (r *SimulateRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.BaseSalary.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "must be positive"})
	}
	if validator.IsEmpty(r.AFPCode) {
		errs = append(errs, validator.ValidationError{Field: "afp_code", Message: "is required"})
	}
	if r.AsOf != "" {
		if _, ok := validator.IsValidDate(r.AsOf); !ok {
			errs = append(errs, validator.ValidationError{Field: "as_of", Message: "must be a valid date (YYYY-MM-DD)"})
		}
	}
	if r.Attendance.TotalDaysMonth != 0 && (r.Attendance.TotalDaysMonth < 28 || r.Attendance.TotalDaysMonth > 31) {
		errs = append(errs, validator.ValidationError{Field: "attendance.total_days_month", Message: "must be between 28 and 31"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SimulateGuardRequest simulates a concrete guard from stored data: salary
// structure, bonus assignments and attendance for the period.
type SimulateGuardRequest struct {
	GuardID string `json:"guard_id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`

	WithEmployerProvisions bool `json:"with_employer_provisions"`
}

func (r *SimulateGuardRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.GuardID) {
		errs = append(errs, validator.ValidationError{Field: "guard_id", Message: "is required"})
	}
	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "invalid year/month"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SimulateResponse struct {
	SnapshotID string    `json:"snapshot_id"`
	Breakdown  Breakdown `json:"breakdown"`
}
