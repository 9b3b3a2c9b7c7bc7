package guard

import "context"

// ProfileRepository reads guard identity/banking data maintained elsewhere in
// the platform.
type ProfileRepository interface {
	GetPayoutProfile(ctx context.Context, companyID, guardID string) (PayoutProfile, error)
	// ListActive enumerates guards eligible for a settlement run.
	ListActive(ctx context.Context, companyID string) ([]PayoutProfile, error)
}
