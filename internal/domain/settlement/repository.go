package settlement

import "context"

// RunRepository persists settlement runs. All methods take companyID to
// prevent cross-company data access.
type RunRepository interface {
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRunByID(ctx context.Context, id string, companyID string) (Run, error)
	// GetOpenRunForPeriod returns the non-paid run for the period, if any.
	GetOpenRunForPeriod(ctx context.Context, companyID string, year, month int) (Run, error)
	ListRuns(ctx context.Context, companyID string, filter RunFilter) ([]Run, int64, error)
	UpdateRunStatus(ctx context.Context, id string, companyID string, status RunStatus, paidBy *string) error
	UpdateRunCounts(ctx context.Context, id string, companyID string, computed, omissions int) error

	// TryAdvisoryLock takes the period-level advisory lock for the current
	// transaction; false means another run holds it.
	TryAdvisoryLock(ctx context.Context, companyID string, year, month int) (bool, error)
}

// Repository persists settlements. Settlement writes happen one guard per
// transaction so a crash mid-run leaves a resumable state.
type Repository interface {
	// UpsertDraft inserts the settlement or replaces the existing non-paid,
	// non-superseded row for the same guard and period. Returns
	// ErrSettlementAlreadyPaid when the existing row is paid.
	UpsertDraft(ctx context.Context, s Settlement) (Settlement, error)
	GetByID(ctx context.Context, id string, companyID string) (Settlement, error)
	GetCurrentForGuardPeriod(ctx context.Context, companyID, guardID string, year, month int) (Settlement, error)
	ListByRun(ctx context.Context, runID string, companyID string) ([]Settlement, error)
	ListByGuard(ctx context.Context, companyID, guardID string, limit int) ([]Settlement, error)
	// MarkRunPaid flips every non-superseded settlement of the run to paid
	// and stamps the payment timestamp.
	MarkRunPaid(ctx context.Context, runID string, companyID string) (int64, error)
	MarkRunApproved(ctx context.Context, runID string, companyID string) error
	// Supersede marks the row superseded and inserts the corrected version.
	Supersede(ctx context.Context, old Settlement, corrected Settlement) (Settlement, error)
}
