package advance

import (
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateProcessRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r *CreateProcessRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "invalid year/month"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AddItemRequest struct {
	GuardID string          `json:"guard_id"`
	Amount  decimal.Decimal `json:"amount"`
}

func (r *AddItemRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.GuardID) {
		errs = append(errs, validator.ValidationError{Field: "guard_id", Message: "is required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be positive"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TransitionProcessRequest struct {
	Status string `json:"status"`
}

func (r *TransitionProcessRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsInSlice(r.Status, []string{string(StatusApproved), string(StatusPaid)}) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'approved' or 'paid'"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ProcessResponse struct {
	ID        string          `json:"id"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Status    string          `json:"status"`
	PaidAt    *string         `json:"paid_at,omitempty"`
	Items     []ItemResponse  `json:"items,omitempty"`
	TotalPaid decimal.Decimal `json:"total"`
}

type ItemResponse struct {
	ID           string          `json:"id"`
	GuardID      string          `json:"guard_id"`
	GuardName    string          `json:"guard_name,omitempty"`
	GuardLegalID string          `json:"guard_legal_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
}
