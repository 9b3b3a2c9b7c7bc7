package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayStatus tags one day of the optional day-by-day detail.
type DayStatus string

const (
	DayWorked        DayStatus = "worked"
	DayAbsent        DayStatus = "absent"
	DayMedical       DayStatus = "medical"
	DayVacation      DayStatus = "vacation"
	DayUnpaid        DayStatus = "unpaid"
	DayHolidayWorked DayStatus = "holiday_worked"
	DayFree          DayStatus = "free"
)

type DayDetail struct {
	Day    int       `json:"day"`
	Status DayStatus `json:"status"`
}

// FactSource records where the period's attendance came from.
type FactSource string

const (
	SourceResolved FactSource = "resolved"
	SourceImported FactSource = "imported"
)

// Fact - normalized attendance for one guard in one calendar month.
type Fact struct {
	ID        string
	CompanyID string
	GuardID   string
	Year      int
	Month     int

	DaysWorked     int
	DaysAbsent     int
	MedicalDays    int
	VacationDays   int
	UnpaidDays     int
	TotalDaysMonth int
	ScheduledDays  int

	SundaysWorked    int
	SundaysScheduled int

	NormalHours      decimal.Decimal
	Overtime50Hours  decimal.Decimal
	Overtime100Hours decimal.Decimal
	HolidayHours     decimal.Decimal
	LateHours        decimal.Decimal

	Days   []DayDetail
	Source FactSource

	CreatedAt time.Time
	UpdatedAt time.Time
}
