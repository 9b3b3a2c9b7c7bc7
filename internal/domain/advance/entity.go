package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enum, shared by processes and items. Forward-only.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
)

// Process - one advance (anticipo) batch per period. Lighter lifecycle than
// a settlement run; items move to paid only when the parent process does.
type Process struct {
	ID        string
	CompanyID string
	Year      int
	Month     int
	Status    Status
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransitionTo enforces the forward-only status machine.
func (p Process) CanTransitionTo(next Status) bool {
	switch p.Status {
	case StatusDraft:
		return next == StatusApproved || next == StatusPaid
	case StatusApproved:
		return next == StatusPaid
	default:
		return false
	}
}

// Item - one guard's advance within a process.
type Item struct {
	ID        string
	ProcessID string
	GuardID   string
	Amount    decimal.Decimal
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	GuardName    *string
	GuardLegalID *string
}
