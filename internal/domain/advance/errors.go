package advance

import "errors"

var (
	ErrProcessNotFound   = errors.New("advance process not found")
	ErrProcessExists     = errors.New("an advance process already exists for this period")
	ErrItemNotFound      = errors.New("advance item not found")
	ErrDuplicateItem     = errors.New("guard already has an advance item in this process")
	ErrAmountExceedsMax  = errors.New("advance amount exceeds guard's configured maximum")
	ErrInvalidTransition = errors.New("invalid advance process status transition")
	ErrProcessNotDraft   = errors.New("advance process is no longer in draft")
)
