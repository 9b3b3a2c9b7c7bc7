package attendance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var sixHours = decimal.NewFromInt(6)

func TestCreditedDays(t *testing.T) {
	cases := []struct {
		name string
		fact Fact
		want string
	}{
		{
			name: "full month",
			fact: Fact{DaysWorked: 30, TotalDaysMonth: 30},
			want: "30",
		},
		{
			name: "paid leave counts",
			fact: Fact{DaysWorked: 20, VacationDays: 5, MedicalDays: 3, TotalDaysMonth: 30},
			want: "28",
		},
		{
			name: "absences and unpaid days never count",
			fact: Fact{DaysWorked: 20, DaysAbsent: 5, UnpaidDays: 5, TotalDaysMonth: 30},
			want: "20",
		},
		{
			name: "late hours subtract day equivalents",
			fact: Fact{DaysWorked: 30, TotalDaysMonth: 30, LateHours: decimal.NewFromInt(12)},
			want: "28", // 12h / 6h per day = 2 days
		},
		{
			name: "clamped at total days",
			fact: Fact{DaysWorked: 28, VacationDays: 10, TotalDaysMonth: 30},
			want: "30",
		},
		{
			name: "clamped at zero",
			fact: Fact{DaysWorked: 1, TotalDaysMonth: 30, LateHours: decimal.NewFromInt(60)},
			want: "0",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CreditedDays(c.fact, sixHours)
			assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "got %s", got)
		})
	}
}

func TestWorkedFraction(t *testing.T) {
	full := WorkedFraction(Fact{DaysWorked: 30, TotalDaysMonth: 30}, sixHours)
	assert.True(t, full.Equal(decimal.NewFromInt(1)), "full month fraction = %s", full)

	half := WorkedFraction(Fact{DaysWorked: 15, TotalDaysMonth: 30}, sixHours)
	assert.True(t, half.Equal(decimal.RequireFromString("0.5")), "half month fraction = %s", half)

	zero := WorkedFraction(Fact{DaysWorked: 10, TotalDaysMonth: 0}, sixHours)
	assert.True(t, zero.IsZero(), "zero-day month fraction = %s", zero)
}

func TestDailyHours(t *testing.T) {
	got := DailyHours(decimal.NewFromInt(180))
	assert.True(t, got.Equal(decimal.NewFromInt(6)), "daily hours = %s", got)

	assert.True(t, DailyHours(decimal.Zero).IsZero())
	assert.True(t, DailyHours(decimal.NewFromInt(-10)).IsZero())
}

func TestReconcileInsertion(t *testing.T) {
	incoming := Fact{GuardID: "g-1", Year: 2025, Month: 3, DaysWorked: 22}

	merged := Reconcile(nil, incoming)
	assert.Equal(t, SourceImported, merged.Source)
	assert.Equal(t, 22, merged.DaysWorked)
}

func TestReconcilePreservesIdentity(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	existing := Fact{
		ID:         "fact-1",
		CompanyID:  "co-1",
		GuardID:    "g-1",
		Year:       2025,
		Month:      3,
		DaysWorked: 18,
		CreatedAt:  created,
		Source:     SourceResolved,
	}
	incoming := Fact{
		GuardID:    "g-other",
		Year:       2026,
		Month:      7,
		DaysWorked: 25,
		DaysAbsent: 2,
	}

	merged := Reconcile(&existing, incoming)

	assert.Equal(t, "fact-1", merged.ID)
	assert.Equal(t, "co-1", merged.CompanyID)
	assert.Equal(t, "g-1", merged.GuardID)
	assert.Equal(t, 2025, merged.Year)
	assert.Equal(t, 3, merged.Month)
	assert.Equal(t, created, merged.CreatedAt)
	assert.Equal(t, SourceImported, merged.Source)

	assert.Equal(t, 25, merged.DaysWorked)
	assert.Equal(t, 2, merged.DaysAbsent)
}
