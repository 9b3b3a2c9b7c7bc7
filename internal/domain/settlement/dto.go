package settlement

import (
	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
)

type OpenRunRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r *OpenRunRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "invalid year/month"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ComputeRunRequest struct {
	// Force recomputes every non-paid settlement in the run; without it,
	// guards that already have a draft are skipped (resume semantics).
	Force bool `json:"force"`
}

type TransitionRunRequest struct {
	Status string `json:"status"`
}

func (r *TransitionRunRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsInSlice(r.Status, []string{string(RunApproved), string(RunPaid)}) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'approved' or 'paid'"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RunFilter struct {
	Year   *int    `json:"year,omitempty"`
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

type RunResponse struct {
	ID            string  `json:"id"`
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	SnapshotID    string  `json:"snapshot_id"`
	Status        string  `json:"status"`
	ComputedCount int     `json:"computed_count"`
	OmissionCount int     `json:"omission_count"`
	PaidAt        *string `json:"paid_at,omitempty"`
}

type SettlementResponse struct {
	ID           string            `json:"id"`
	RunID        string            `json:"run_id"`
	GuardID      string            `json:"guard_id"`
	GuardName    string            `json:"guard_name,omitempty"`
	GuardLegalID string            `json:"guard_legal_id,omitempty"`
	Year         int               `json:"year"`
	Month        int               `json:"month"`
	SnapshotID   string            `json:"snapshot_id"`
	Source       string            `json:"source"`
	AFPCode      string            `json:"afp_code"`
	HealthScheme string            `json:"health_scheme"`
	Breakdown    payslip.Breakdown `json:"breakdown"`
	Status       string            `json:"status"`
	Version      int               `json:"version"`
	Superseded   bool              `json:"superseded"`
	PaidAt       *string           `json:"paid_at,omitempty"`
}

type ListRunResponse struct {
	Data       []RunResponse `json:"data"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}
