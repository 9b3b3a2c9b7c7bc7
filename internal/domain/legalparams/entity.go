package legalparams

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractType selects the AFC contribution split.
type ContractType string

const (
	ContractIndefinite ContractType = "indefinite"
	ContractFixedTerm  ContractType = "fixed_term"
)

// AFPProvider - pension fund provider rates, employee side includes the
// statutory additional commission.
type AFPProvider struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	EmployeeRate    decimal.Decimal `json:"employee_rate"`
	EmployerSISRate decimal.Decimal `json:"employer_sis_rate"`
}

// AFCRate - unemployment insurance split for one contract type.
type AFCRate struct {
	EmployeeRate decimal.Decimal `json:"employee_rate"`
	EmployerRate decimal.Decimal `json:"employer_rate"`
}

// TaxBracket - one marginal bracket of the second-category income tax,
// expressed in CLP for the snapshot's period. ToCLP nil means open-ended.
type TaxBracket struct {
	FromCLP      decimal.Decimal  `json:"from_clp"`
	ToCLP        *decimal.Decimal `json:"to_clp,omitempty"`
	MarginalRate decimal.Decimal  `json:"marginal_rate"`
}

// Snapshot is an immutable, versioned set of statutory rates and indices.
// Once any settlement references a snapshot id the row is never updated;
// legal changes always create a new version.
type Snapshot struct {
	ID            string
	CompanyID     string
	EffectiveFrom time.Time
	PublishedAt   time.Time

	UFValue  decimal.Decimal
	UTMValue decimal.Decimal

	ContributionCapUF decimal.Decimal
	AFCCapUF          decimal.Decimal

	AFPProviders     []AFPProvider
	HealthPublicRate decimal.Decimal
	AFCRates         map[ContractType]AFCRate
	TaxBrackets      []TaxBracket

	GratificationMonthlyCap decimal.Decimal
	DependentAllowance      decimal.Decimal

	AccidentInsuranceRate  decimal.Decimal
	VacationProvisionRate  decimal.Decimal
	SeveranceProvisionRate decimal.Decimal

	Overtime50Multiplier  decimal.Decimal
	Overtime100Multiplier decimal.Decimal

	CreatedAt time.Time
}

// AFPByCode looks up a pension provider by its code.
func (s Snapshot) AFPByCode(code string) (AFPProvider, bool) {
	for _, p := range s.AFPProviders {
		if p.Code == code {
			return p, true
		}
	}
	return AFPProvider{}, false
}

// ContributionCapCLP returns the AFP/health maximum taxable base in pesos.
func (s Snapshot) ContributionCapCLP() decimal.Decimal {
	return s.ContributionCapUF.Mul(s.UFValue)
}

// AFCCapCLP returns the unemployment insurance maximum taxable base in pesos.
func (s Snapshot) AFCCapCLP() decimal.Decimal {
	return s.AFCCapUF.Mul(s.UFValue)
}
