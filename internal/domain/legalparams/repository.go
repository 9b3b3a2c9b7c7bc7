package legalparams

import (
	"context"
	"time"
)

// SnapshotRepository persists legal parameter snapshots. Snapshots are
// insert-only; there is deliberately no update method.
type SnapshotRepository interface {
	Create(ctx context.Context, snap Snapshot) (Snapshot, error)
	GetByID(ctx context.Context, id string, companyID string) (Snapshot, error)
	ResolveAsOf(ctx context.Context, companyID string, asOf time.Time) (Snapshot, error)
	List(ctx context.Context, companyID string) ([]Snapshot, error)
}
