package settlement

import "errors"

var (
	ErrRunNotFound           = errors.New("settlement run not found")
	ErrRunExists             = errors.New("a non-paid settlement run already exists for this period")
	ErrInvalidTransition     = errors.New("invalid run status transition")
	ErrConcurrentRunConflict = errors.New("another computation holds the period lock, retry later")
	ErrRunNotExportable      = errors.New("run is still open, exports require a computed run")
	ErrSettlementNotFound    = errors.New("settlement not found")
	ErrSettlementAlreadyPaid = errors.New("settlement already paid, cannot recompute or modify")
	ErrDuplicateSettlement   = errors.New("a settlement already exists for this guard and period")
)
