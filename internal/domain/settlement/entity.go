package settlement

import (
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
)

// RunStatus enum. Transitions are forward-only:
// open → draft → approved → paid.
type RunStatus string

const (
	RunOpen     RunStatus = "open"
	RunDraft    RunStatus = "draft"
	RunApproved RunStatus = "approved"
	RunPaid     RunStatus = "paid"
)

// Run - one settlement batch for one calendar period. The legal parameter
// snapshot is pinned when the run is opened so every guard in the batch is
// computed against the same legal basis.
type Run struct {
	ID         string
	CompanyID  string
	Year       int
	Month      int
	SnapshotID string
	Status     RunStatus

	ComputedCount int
	OmissionCount int

	PaidAt    *time.Time
	PaidBy    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransitionTo enforces the forward-only status machine.
func (r Run) CanTransitionTo(next RunStatus) bool {
	switch r.Status {
	case RunOpen:
		return next == RunDraft
	case RunDraft:
		return next == RunApproved || next == RunPaid
	case RunApproved:
		return next == RunPaid
	default:
		return false
	}
}

// Status enum for individual settlements.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
)

// Settlement (liquidación) - one guard's finalized payroll computation for
// one period. It stores the full computed breakdown plus the snapshot id, so
// historical re-display never depends on current legal parameters. Once paid
// it is immutable; corrections supersede the row with a new version.
type Settlement struct {
	ID         string
	RunID      string
	CompanyID  string
	GuardID    string
	Year       int
	Month      int
	SnapshotID string
	Source     string

	// Pinned at compute time so exports never re-resolve the structure.
	AFPCode      string
	HealthScheme string

	Breakdown payslip.Breakdown

	Status     Status
	Version    int
	Superseded bool

	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	GuardName    *string
	GuardLegalID *string
}

// Omission records one guard excluded from a run and why.
type Omission struct {
	GuardID   string `json:"guard_id"`
	GuardName string `json:"guard_name"`
	Reason    string `json:"reason"`
}

// RunReport summarizes a compute pass. A run that completes with omissions
// must surface them before approval.
type RunReport struct {
	RunID     string     `json:"run_id"`
	Computed  int        `json:"computed"`
	Omissions []Omission `json:"omissions"`
}
