package salary

import (
	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== STRUCTURE DTOs ==========

type CreateStructureRequest struct {
	GuardID        *string `json:"guard_id,omitempty"`
	InstallationID *string `json:"installation_id,omitempty"`

	BaseSalary         decimal.Decimal `json:"base_salary"`
	MealAllowance      decimal.Decimal `json:"meal_allowance"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`

	GratificationPolicy string          `json:"gratification_policy"`
	CustomGratification decimal.Decimal `json:"custom_gratification"`

	HealthScheme   string          `json:"health_scheme"`
	IsaprePlanRate decimal.Decimal `json:"isapre_plan_rate"`

	AFPCode      string `json:"afp_code"`
	ContractType string `json:"contract_type"`

	MonthlyHours     *decimal.Decimal `json:"monthly_hours,omitempty"`
	FamilyDependents int              `json:"family_dependents"`
	AdvanceMax       decimal.Decimal  `json:"advance_max"`

	EffectiveFrom string  `json:"effective_from"`
	EndDate       *string `json:"end_date,omitempty"`
}

func (r *CreateStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if (r.GuardID == nil) == (r.InstallationID == nil) {
		errs = append(errs, validator.ValidationError{Field: "guard_id", Message: "exactly one of guard_id or installation_id is required"})
	}
	if !r.BaseSalary.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "must be positive"})
	}
	if r.MealAllowance.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "meal_allowance", Message: "must be non-negative"})
	}
	if r.TransportAllowance.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "transport_allowance", Message: "must be non-negative"})
	}
	if !validator.IsInSlice(r.GratificationPolicy, []string{string(GratificationNone), string(GratificationAutomatic), string(GratificationCustom)}) {
		errs = append(errs, validator.ValidationError{Field: "gratification_policy", Message: "must be 'none', 'automatic' or 'custom'"})
	}
	if r.GratificationPolicy == string(GratificationCustom) && !r.CustomGratification.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "custom_gratification", Message: "must be positive for custom policy"})
	}
	if !validator.IsInSlice(r.HealthScheme, []string{string(HealthFonasa), string(HealthIsapre)}) {
		errs = append(errs, validator.ValidationError{Field: "health_scheme", Message: "must be 'fonasa' or 'isapre'"})
	}
	if r.HealthScheme == string(HealthIsapre) && !r.IsaprePlanRate.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "isapre_plan_rate", Message: "must be positive for isapre scheme"})
	}
	if validator.IsEmpty(r.AFPCode) {
		errs = append(errs, validator.ValidationError{Field: "afp_code", Message: "is required"})
	}
	if !validator.IsInSlice(r.ContractType, []string{string(legalparams.ContractIndefinite), string(legalparams.ContractFixedTerm)}) {
		errs = append(errs, validator.ValidationError{Field: "contract_type", Message: "must be 'indefinite' or 'fixed_term'"})
	}
	if r.MonthlyHours != nil && !r.MonthlyHours.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "monthly_hours", Message: "must be positive"})
	}
	if r.FamilyDependents < 0 {
		errs = append(errs, validator.ValidationError{Field: "family_dependents", Message: "must be non-negative"})
	}
	if r.AdvanceMax.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "advance_max", Message: "must be non-negative"})
	}
	if _, ok := validator.IsValidDate(r.EffectiveFrom); !ok {
		errs = append(errs, validator.ValidationError{Field: "effective_from", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be a valid date (YYYY-MM-DD)"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type StructureResponse struct {
	ID             string  `json:"id"`
	GuardID        *string `json:"guard_id,omitempty"`
	InstallationID *string `json:"installation_id,omitempty"`

	BaseSalary         decimal.Decimal `json:"base_salary"`
	MealAllowance      decimal.Decimal `json:"meal_allowance"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`

	GratificationPolicy string          `json:"gratification_policy"`
	CustomGratification decimal.Decimal `json:"custom_gratification"`

	HealthScheme   string          `json:"health_scheme"`
	IsaprePlanRate decimal.Decimal `json:"isapre_plan_rate"`

	AFPCode      string `json:"afp_code"`
	ContractType string `json:"contract_type"`

	MonthlyHours     decimal.Decimal `json:"monthly_hours"`
	FamilyDependents int             `json:"family_dependents"`
	AdvanceMax       decimal.Decimal `json:"advance_max"`

	EffectiveFrom string  `json:"effective_from"`
	EndDate       *string `json:"end_date,omitempty"`
}

// ========== BONUS DTOs ==========

type CreateBonusDefinitionRequest struct {
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Percent     decimal.Decimal `json:"percent"`
	Taxable     *bool           `json:"taxable,omitempty"`
	Tributable  *bool           `json:"tributable,omitempty"`
	MinDays     int             `json:"min_days"`
	Description *string         `json:"description,omitempty"`
}

func (r *CreateBonusDefinitionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	switch BonusKind(r.Kind) {
	case BonusFixed, BonusConditional:
		if !r.Amount.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be positive"})
		}
	case BonusPercent:
		if !r.Percent.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: "percent", Message: "must be positive"})
		}
	default:
		errs = append(errs, validator.ValidationError{Field: "kind", Message: "must be 'fixed', 'percent' or 'conditional'"})
	}
	if BonusKind(r.Kind) == BonusConditional && r.MinDays <= 0 {
		errs = append(errs, validator.ValidationError{Field: "min_days", Message: "must be positive for conditional bonus"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateBonusDefinitionRequest struct {
	ID          string
	Name        *string          `json:"name,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Percent     *decimal.Decimal `json:"percent,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	Description *string          `json:"description,omitempty"`
}

type AssignBonusRequest struct {
	GuardID         string           `json:"-"`
	BonusID         string           `json:"bonus_id"`
	OverrideAmount  *decimal.Decimal `json:"override_amount,omitempty"`
	OverridePercent *decimal.Decimal `json:"override_percent,omitempty"`
	EffectiveFrom   *string          `json:"effective_from,omitempty"`
	EndDate         *string          `json:"end_date,omitempty"`
}

func (r *AssignBonusRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.BonusID) {
		errs = append(errs, validator.ValidationError{Field: "bonus_id", Message: "is required"})
	}
	if r.OverrideAmount != nil && r.OverrideAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "override_amount", Message: "must be non-negative"})
	}
	if r.OverridePercent != nil && r.OverridePercent.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "override_percent", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BonusDefinitionResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Percent     decimal.Decimal `json:"percent"`
	Taxable     bool            `json:"taxable"`
	Tributable  bool            `json:"tributable"`
	MinDays     int             `json:"min_days"`
	IsActive    bool            `json:"is_active"`
	Description *string         `json:"description,omitempty"`
}
