package legalparams

import (
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type ImportSnapshotRequest struct {
	EffectiveFrom string `json:"effective_from"`

	UFValue  decimal.Decimal `json:"uf_value"`
	UTMValue decimal.Decimal `json:"utm_value"`

	ContributionCapUF decimal.Decimal `json:"contribution_cap_uf"`
	AFCCapUF          decimal.Decimal `json:"afc_cap_uf"`

	AFPProviders     []AFPProvider            `json:"afp_providers"`
	HealthPublicRate decimal.Decimal          `json:"health_public_rate"`
	AFCRates         map[ContractType]AFCRate `json:"afc_rates"`
	TaxBrackets      []TaxBracket             `json:"tax_brackets"`

	GratificationMonthlyCap decimal.Decimal `json:"gratification_monthly_cap"`
	DependentAllowance      decimal.Decimal `json:"dependent_allowance"`

	AccidentInsuranceRate  decimal.Decimal `json:"accident_insurance_rate"`
	VacationProvisionRate  decimal.Decimal `json:"vacation_provision_rate"`
	SeveranceProvisionRate decimal.Decimal `json:"severance_provision_rate"`

	Overtime50Multiplier  decimal.Decimal `json:"overtime_50_multiplier"`
	Overtime100Multiplier decimal.Decimal `json:"overtime_100_multiplier"`
}

func (r *ImportSnapshotRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.EffectiveFrom); !ok {
		errs = append(errs, validator.ValidationError{Field: "effective_from", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	if !r.UFValue.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "uf_value", Message: "must be positive"})
	}
	if !r.UTMValue.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "utm_value", Message: "must be positive"})
	}
	if !r.ContributionCapUF.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "contribution_cap_uf", Message: "must be positive"})
	}
	if !r.AFCCapUF.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "afc_cap_uf", Message: "must be positive"})
	}
	if len(r.AFPProviders) == 0 {
		errs = append(errs, validator.ValidationError{Field: "afp_providers", Message: "at least one provider is required"})
	}
	if len(r.TaxBrackets) == 0 {
		errs = append(errs, validator.ValidationError{Field: "tax_brackets", Message: "at least one bracket is required"})
	}
	if _, ok := r.AFCRates[ContractIndefinite]; !ok {
		errs = append(errs, validator.ValidationError{Field: "afc_rates", Message: "indefinite contract rate is required"})
	}
	if _, ok := r.AFCRates[ContractFixedTerm]; !ok {
		errs = append(errs, validator.ValidationError{Field: "afc_rates", Message: "fixed_term contract rate is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SnapshotResponse struct {
	ID            string `json:"id"`
	EffectiveFrom string `json:"effective_from"`
	PublishedAt   string `json:"published_at"`

	UFValue  decimal.Decimal `json:"uf_value"`
	UTMValue decimal.Decimal `json:"utm_value"`

	ContributionCapUF decimal.Decimal `json:"contribution_cap_uf"`
	AFCCapUF          decimal.Decimal `json:"afc_cap_uf"`

	AFPProviders     []AFPProvider            `json:"afp_providers"`
	HealthPublicRate decimal.Decimal          `json:"health_public_rate"`
	AFCRates         map[ContractType]AFCRate `json:"afc_rates"`
	TaxBrackets      []TaxBracket             `json:"tax_brackets"`

	GratificationMonthlyCap decimal.Decimal `json:"gratification_monthly_cap"`
	DependentAllowance      decimal.Decimal `json:"dependent_allowance"`

	AccidentInsuranceRate  decimal.Decimal `json:"accident_insurance_rate"`
	VacationProvisionRate  decimal.Decimal `json:"vacation_provision_rate"`
	SeveranceProvisionRate decimal.Decimal `json:"severance_provision_rate"`

	Overtime50Multiplier  decimal.Decimal `json:"overtime_50_multiplier"`
	Overtime100Multiplier decimal.Decimal `json:"overtime_100_multiplier"`
}
