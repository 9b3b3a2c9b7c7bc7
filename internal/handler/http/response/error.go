package response

import (
	"errors"
	"net/http"

	"github.com/Cryptobal/opai-sub012/internal/domain/advance"
	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/domain/export"
	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Legal parameter errors
	case errors.Is(err, legalparams.ErrParameterNotFound):
		NotFound(w, "No legal parameter snapshot covers the requested date")
	case errors.Is(err, legalparams.ErrUnknownAFPCode):
		BadRequest(w, "Unknown AFP provider code for the pinned snapshot", nil)
	case errors.Is(err, legalparams.ErrUnknownContract):
		BadRequest(w, "Unknown contract type for the pinned snapshot", nil)

	// Salary errors
	case errors.Is(err, salary.ErrNoSalaryStructure):
		NotFound(w, "Guard has no salary structure for the period")
	case errors.Is(err, salary.ErrStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, salary.ErrStructureOverlap):
		Conflict(w, "An overlapping salary structure already exists")
	case errors.Is(err, salary.ErrBonusNotFound):
		NotFound(w, "Bonus definition not found")
	case errors.Is(err, salary.ErrBonusNameExists):
		Conflict(w, "A bonus with this name already exists")
	case errors.Is(err, salary.ErrAssignmentNotFound):
		NotFound(w, "Bonus assignment not found")

	// Attendance errors
	case errors.Is(err, attendance.ErrNoAttendanceData):
		NotFound(w, "No attendance data for the guard and period")
	case errors.Is(err, attendance.ErrInvalidFact):
		BadRequest(w, "Invalid attendance fact", nil)

	// Guard errors
	case errors.Is(err, guard.ErrGuardNotFound):
		NotFound(w, "Guard not found")

	// Settlement errors
	case errors.Is(err, settlement.ErrRunNotFound):
		NotFound(w, "Settlement run not found")
	case errors.Is(err, settlement.ErrRunExists):
		Conflict(w, "A non-paid settlement run already exists for this period")
	case errors.Is(err, settlement.ErrInvalidTransition):
		Conflict(w, "Invalid run status transition")
	case errors.Is(err, settlement.ErrConcurrentRunConflict):
		Conflict(w, "Another computation holds the period lock, retry later")
	case errors.Is(err, settlement.ErrRunNotExportable):
		Conflict(w, "Run is still open, compute it before exporting")
	case errors.Is(err, settlement.ErrSettlementNotFound):
		NotFound(w, "Settlement not found")
	case errors.Is(err, settlement.ErrSettlementAlreadyPaid):
		Conflict(w, "Settlement already paid")
	case errors.Is(err, settlement.ErrDuplicateSettlement):
		Conflict(w, "A settlement already exists for this guard and period")

	// Advance errors
	case errors.Is(err, advance.ErrProcessNotFound):
		NotFound(w, "Advance process not found")
	case errors.Is(err, advance.ErrProcessExists):
		Conflict(w, "An advance process already exists for this period")
	case errors.Is(err, advance.ErrItemNotFound):
		NotFound(w, "Advance item not found")
	case errors.Is(err, advance.ErrDuplicateItem):
		Conflict(w, "Guard already has an advance item in this process")
	case errors.Is(err, advance.ErrAmountExceedsMax):
		BadRequest(w, "Advance amount exceeds the guard's configured maximum", nil)
	case errors.Is(err, advance.ErrInvalidTransition):
		Conflict(w, "Invalid advance process status transition")
	case errors.Is(err, advance.ErrProcessNotDraft):
		Conflict(w, "Advance process is no longer in draft")

	// Export errors
	case errors.Is(err, export.ErrUnknownKind):
		BadRequest(w, "Unknown export kind", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
