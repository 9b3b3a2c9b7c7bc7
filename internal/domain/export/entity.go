package export

// Kind selects the file layout.
type Kind string

const (
	// KindContributions is the Previred-style social security declaration.
	KindContributions Kind = "contributions"
	// KindLedger is the full accounting ledger, one row per settlement.
	KindLedger Kind = "ledger"
	// KindBank is the bank transfer batch for net salary payments.
	KindBank Kind = "bank"
)

func (k Kind) Valid() bool {
	switch k {
	case KindContributions, KindLedger, KindBank:
		return true
	}
	return false
}

// Omission records one settlement excluded from a file and why. Omissions are
// reported, never a hard failure.
type Omission struct {
	GuardID      string `json:"guard_id"`
	GuardLegalID string `json:"guard_legal_id"`
	Reason       string `json:"reason"`
}

// Report summarizes one export.
type Report struct {
	RunID     string     `json:"run_id"`
	Kind      Kind       `json:"kind"`
	Rows      int        `json:"rows"`
	Omissions []Omission `json:"omissions"`
}

// File is a rendered export: deterministic bytes for identical input.
type File struct {
	Name    string `json:"name"`
	Content []byte `json:"-"`
	Report  Report `json:"report"`
}
