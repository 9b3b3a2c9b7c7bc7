package salary

import "errors"

var (
	ErrNoSalaryStructure   = errors.New("no active salary structure for guard")
	ErrStructureNotFound   = errors.New("salary structure not found")
	ErrBonusNotFound       = errors.New("bonus definition not found")
	ErrBonusNameExists     = errors.New("bonus name already exists in catalog")
	ErrAssignmentNotFound  = errors.New("bonus assignment not found")
	ErrStructureOverlap    = errors.New("an active structure already covers this date range")
	ErrInvalidBonusKind    = errors.New("invalid bonus kind")
	ErrInvalidHealthScheme = errors.New("invalid health scheme")
)
