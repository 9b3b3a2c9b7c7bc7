package guard

import "time"

// PayoutProfile is the engine's read-only view of a guard: identity and
// banking data needed for settlements and export files. Guard CRUD lives in
// the platform; this package only defines the contract the engine consumes.
type PayoutProfile struct {
	GuardID        string
	CompanyID      string
	LegalID        string
	FullName       string
	InstallationID *string

	BankName      *string
	BankCode      *string
	AccountType   *string
	AccountNumber *string
	Email         *string

	IsActive  bool
	HiredAt   time.Time
	EndedAt   *time.Time
	UpdatedAt time.Time
}

// HasBankAccount reports whether the profile carries everything the bank
// transfer file needs.
func (p PayoutProfile) HasBankAccount() bool {
	return p.BankCode != nil && *p.BankCode != "" &&
		p.AccountType != nil && *p.AccountType != "" &&
		p.AccountNumber != nil && *p.AccountNumber != ""
}
