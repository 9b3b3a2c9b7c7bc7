package salary

import (
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/shopspring/decimal"
)

// GratificationPolicy enum
type GratificationPolicy string

const (
	GratificationNone      GratificationPolicy = "none"
	GratificationAutomatic GratificationPolicy = "automatic"
	GratificationCustom    GratificationPolicy = "custom"
)

// HealthScheme enum
type HealthScheme string

const (
	HealthFonasa HealthScheme = "fonasa"
	HealthIsapre HealthScheme = "isapre"
)

// Structure - salary configuration for a guard or an installation default.
// Exactly one of GuardID / InstallationID is set; a guard-level structure
// active at the period start wins over the installation default.
type Structure struct {
	ID             string
	CompanyID      string
	GuardID        *string
	InstallationID *string

	BaseSalary         decimal.Decimal
	MealAllowance      decimal.Decimal
	TransportAllowance decimal.Decimal

	GratificationPolicy GratificationPolicy
	CustomGratification decimal.Decimal

	HealthScheme   HealthScheme
	IsaprePlanRate decimal.Decimal

	AFPCode      string
	ContractType legalparams.ContractType

	MonthlyHours     decimal.Decimal
	FamilyDependents int

	AdvanceMax decimal.Decimal

	EffectiveFrom time.Time
	EndDate       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActiveAt reports whether the structure covers the given date.
func (s Structure) ActiveAt(t time.Time) bool {
	if t.Before(s.EffectiveFrom) {
		return false
	}
	return s.EndDate == nil || !t.After(*s.EndDate)
}

// BonusKind enum
type BonusKind string

const (
	BonusFixed       BonusKind = "fixed"
	BonusPercent     BonusKind = "percent"
	BonusConditional BonusKind = "conditional"
)

// BonusDefinition - entry in the tenant-level bonus catalog.
type BonusDefinition struct {
	ID        string
	CompanyID string
	Name      string
	Kind      BonusKind

	Amount  decimal.Decimal
	Percent decimal.Decimal

	Taxable     bool
	Tributable  bool
	MinDays     int
	IsActive    bool
	Description *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BonusAssignment attaches a catalog bonus to a guard, optionally overriding
// the catalog amount or percentage.
type BonusAssignment struct {
	ID              string
	GuardID         string
	BonusID         string
	OverrideAmount  *decimal.Decimal
	OverridePercent *decimal.Decimal
	EffectiveFrom   time.Time
	EndDate         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	Definition *BonusDefinition
}

// ActiveAt reports whether the assignment covers the given date.
func (a BonusAssignment) ActiveAt(t time.Time) bool {
	if t.Before(a.EffectiveFrom) {
		return false
	}
	return a.EndDate == nil || !t.After(*a.EndDate)
}

// Resolved is the effective salary package for one guard at one period start.
type Resolved struct {
	Structure Structure
	Bonuses   []BonusAssignment
}
