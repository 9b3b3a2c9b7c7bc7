package attendance

import "context"

// FactRepository supplies normalized attendance facts. The engine consumes
// facts read-only; Upsert exists only for the import path.
type FactRepository interface {
	GetFact(ctx context.Context, companyID, guardID string, year, month int) (Fact, error)
	Upsert(ctx context.Context, fact Fact) (Fact, error)
	ListByPeriod(ctx context.Context, companyID string, year, month int) ([]Fact, error)
}
