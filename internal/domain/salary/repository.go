package salary

import (
	"context"
	"time"
)

// StructureRepository defines data access for salary structures. All methods
// take companyID to prevent cross-company data access.
type StructureRepository interface {
	Create(ctx context.Context, s Structure) (Structure, error)
	GetByID(ctx context.Context, id string, companyID string) (Structure, error)
	// GetEffectiveForGuard returns the guard-level structure active at asOf,
	// or ErrStructureNotFound.
	GetEffectiveForGuard(ctx context.Context, companyID, guardID string, asOf time.Time) (Structure, error)
	// GetInstallationDefault returns the installation-default structure active
	// at asOf for the guard's installation, or ErrStructureNotFound.
	GetInstallationDefault(ctx context.Context, companyID, guardID string, asOf time.Time) (Structure, error)
	ListByGuard(ctx context.Context, companyID, guardID string) ([]Structure, error)
	Close(ctx context.Context, id string, companyID string, endDate time.Time) error
}

// BonusRepository defines data access for the bonus catalog and guard
// assignments.
type BonusRepository interface {
	CreateDefinition(ctx context.Context, def BonusDefinition) (BonusDefinition, error)
	GetDefinitionByID(ctx context.Context, id string, companyID string) (BonusDefinition, error)
	ListDefinitions(ctx context.Context, companyID string, activeOnly bool) ([]BonusDefinition, error)
	UpdateDefinition(ctx context.Context, companyID string, req UpdateBonusDefinitionRequest) error

	Assign(ctx context.Context, a BonusAssignment, companyID string) (BonusAssignment, error)
	// ListActiveAssignments returns the guard's assignments active at asOf,
	// with Definition populated.
	ListActiveAssignments(ctx context.Context, companyID, guardID string, asOf time.Time) ([]BonusAssignment, error)
	RemoveAssignment(ctx context.Context, id string, companyID string) error
}
