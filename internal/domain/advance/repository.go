package advance

import "context"

// Repository persists advance processes and their items.
type Repository interface {
	CreateProcess(ctx context.Context, p Process) (Process, error)
	GetProcessByID(ctx context.Context, id string, companyID string) (Process, error)
	// GetProcessForPeriod returns the period's process regardless of status.
	GetProcessForPeriod(ctx context.Context, companyID string, year, month int) (Process, error)
	ListProcesses(ctx context.Context, companyID string) ([]Process, error)
	UpdateProcessStatus(ctx context.Context, id string, companyID string, status Status) error

	CreateItem(ctx context.Context, item Item, companyID string) (Item, error)
	ListItems(ctx context.Context, processID string, companyID string) ([]Item, error)
	RemoveItem(ctx context.Context, id string, companyID string) error
	// MarkItemsPaid flips every item of the process to paid.
	MarkItemsPaid(ctx context.Context, processID string, companyID string) (int64, error)
}
