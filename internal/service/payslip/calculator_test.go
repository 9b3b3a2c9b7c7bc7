package payslip

import (
	"math/rand"
	"testing"

	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

// testSnapshot returns a snapshot with January 2025 statutory values.
func testSnapshot() legalparams.Snapshot {
	return legalparams.Snapshot{
		ID:                "snap-2025-01",
		UFValue:           d("37000"),
		UTMValue:          d("66000"),
		ContributionCapUF: d("84.3"),
		AFCCapUF:          d("126.6"),
		AFPProviders: []legalparams.AFPProvider{
			{Code: "HABITAT", Name: "AFP Habitat", EmployeeRate: d("0.1127"), EmployerSISRate: d("0.0149")},
			{Code: "MODELO", Name: "AFP Modelo", EmployeeRate: d("0.1058"), EmployerSISRate: d("0.0149")},
		},
		HealthPublicRate: d("0.07"),
		AFCRates: map[legalparams.ContractType]legalparams.AFCRate{
			legalparams.ContractIndefinite: {EmployeeRate: d("0.006"), EmployerRate: d("0.024")},
			legalparams.ContractFixedTerm:  {EmployeeRate: d("0"), EmployerRate: d("0.03")},
		},
		TaxBrackets: []legalparams.TaxBracket{
			{FromCLP: d("0"), ToCLP: dp("850000"), MarginalRate: d("0")},
			{FromCLP: d("850000"), ToCLP: dp("1900000"), MarginalRate: d("0.04")},
			{FromCLP: d("1900000"), MarginalRate: d("0.08")},
		},
		GratificationMonthlyCap: d("209396"),
		DependentAllowance:      d("5000"),
		AccidentInsuranceRate:   d("0.0093"),
		VacationProvisionRate:   d("0.0833"),
		SeveranceProvisionRate:  d("0.0411"),
		Overtime50Multiplier:    d("1.5"),
		Overtime100Multiplier:   d("2"),
	}
}

func fullMonthFact() attendance.Fact {
	return attendance.Fact{
		DaysWorked:     30,
		TotalDaysMonth: 30,
		ScheduledDays:  30,
	}
}

func baseInput() payslip.Input {
	return payslip.Input{
		BaseSalary:   d("800000"),
		AFPCode:      "HABITAT",
		ContractType: legalparams.ContractIndefinite,
		HealthScheme: salary.HealthFonasa,
		Fact:         fullMonthFact(),
	}
}

func TestSimulateFullMonthFonasa(t *testing.T) {
	b, err := Simulate(baseInput(), testSnapshot())
	require.NoError(t, err)

	assert.True(t, b.WorkedFraction.Equal(d("1")), "worked fraction = %s", b.WorkedFraction)
	assert.True(t, b.ProratedBase.Equal(d("800000")), "prorated base = %s", b.ProratedBase)
	assert.True(t, b.TaxableGross.Equal(d("800000")), "taxable gross = %s", b.TaxableGross)

	assert.True(t, b.PensionDeduction.Equal(d("90160")), "pension = %s", b.PensionDeduction)
	assert.True(t, b.HealthDeduction.Equal(d("56000")), "health = %s", b.HealthDeduction)
	assert.True(t, b.AFCDeduction.Equal(d("4800")), "afc = %s", b.AFCDeduction)
	assert.True(t, b.IncomeTax.IsZero(), "income tax = %s", b.IncomeTax)
	assert.True(t, b.TotalDeductions.Equal(d("150960")), "total deductions = %s", b.TotalDeductions)
	assert.True(t, b.NetSalary.Equal(d("649040")), "net = %s", b.NetSalary)
	assert.False(t, b.NegativeNet)

	assert.True(t, b.EmployerAFC.Equal(d("19200")), "employer afc = %s", b.EmployerAFC)
	assert.True(t, b.EmployerSIS.Equal(d("11920")), "employer sis = %s", b.EmployerSIS)
	assert.True(t, b.EmployerAccident.Equal(d("7440")), "employer accident = %s", b.EmployerAccident)
	assert.True(t, b.EmployerCost.Equal(d("838560")), "employer cost = %s", b.EmployerCost)
}

func TestSimulateProratesBaseAndAllowances(t *testing.T) {
	in := baseInput()
	in.MealAllowance = d("60000")
	in.TransportAllowance = d("45000")
	in.Fact = attendance.Fact{DaysWorked: 20, TotalDaysMonth: 30, ScheduledDays: 30}

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)

	assert.True(t, b.ProratedBase.Equal(d("533333")), "prorated base = %s", b.ProratedBase)
	assert.True(t, b.MealAllowance.Equal(d("40000")), "meal = %s", b.MealAllowance)
	assert.True(t, b.TransportAllowance.Equal(d("30000")), "transport = %s", b.TransportAllowance)
}

func TestSimulateOvertime(t *testing.T) {
	in := baseInput()
	in.Fact.Overtime50Hours = d("10")

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)

	// 800000 / 180h * 10h * 1.5
	assert.True(t, b.OvertimePay.Equal(d("66667")), "overtime = %s", b.OvertimePay)
	assert.True(t, b.TaxableGross.Equal(d("866667")), "taxable gross = %s", b.TaxableGross)
}

func TestSimulateGratificationAutomatic(t *testing.T) {
	in := baseInput()
	in.GratificationPolicy = salary.GratificationAutomatic

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.Gratification.Equal(d("200000")), "gratification = %s", b.Gratification)

	in.BaseSalary = d("1000000")
	b, err = Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.Gratification.Equal(d("209396")), "capped gratification = %s", b.Gratification)
}

func TestSimulateGratificationCustom(t *testing.T) {
	in := baseInput()
	in.GratificationPolicy = salary.GratificationCustom
	in.CustomGratification = d("150000")

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.Gratification.Equal(d("150000")), "gratification = %s", b.Gratification)
}

func TestSimulateContributionCaps(t *testing.T) {
	in := baseInput()
	in.BaseSalary = d("5000000")

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)

	// AFP/health capped at 84.3 UF = 3,119,100; AFC at 126.6 UF = 4,684,200.
	assert.True(t, b.PensionDeduction.Equal(d("351523")), "pension = %s", b.PensionDeduction)
	assert.True(t, b.HealthDeduction.Equal(d("218337")), "health = %s", b.HealthDeduction)
	assert.True(t, b.AFCDeduction.Equal(d("28105")), "afc = %s", b.AFCDeduction)
}

func TestSimulateIsaprePlanRate(t *testing.T) {
	in := baseInput()
	in.HealthScheme = salary.HealthIsapre
	in.IsaprePlanRate = d("0.09")

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.HealthDeduction.Equal(d("72000")), "isapre health = %s", b.HealthDeduction)

	// A plan below the statutory rate is floored at the public rate.
	in.IsaprePlanRate = d("0.05")
	b, err = Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.HealthDeduction.Equal(d("56000")), "floored health = %s", b.HealthDeduction)
}

func TestSimulateIncomeTaxWithDependents(t *testing.T) {
	in := baseInput()
	in.BaseSalary = d("2400000")

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	// tax base 2,400,000 - 270,480 - 168,000 = 1,961,520
	assert.True(t, b.IncomeTax.Equal(d("46922")), "income tax = %s", b.IncomeTax)

	in.FamilyDependents = 2
	b, err = Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.IncomeTax.Equal(d("46122")), "income tax with dependents = %s", b.IncomeTax)
}

func TestSimulateExtraDeductions(t *testing.T) {
	in := baseInput()
	in.ExtraDeductions = []payslip.DeductionLine{{Name: "Anticipo", Amount: d("100000")}}

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.ExtraDeductions.Equal(d("100000")))
	assert.True(t, b.NetSalary.Equal(d("549040")), "net = %s", b.NetSalary)
}

func TestSimulateNegativeNetFlagged(t *testing.T) {
	in := baseInput()
	in.ExtraDeductions = []payslip.DeductionLine{{Name: "Retencion judicial", Amount: d("10000000")}}

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.NegativeNet)
	assert.True(t, b.NetSalary.IsZero(), "net = %s", b.NetSalary)
}

func TestSimulateBonuses(t *testing.T) {
	in := baseInput()
	in.Bonuses = []payslip.BonusLine{
		{Name: "Bono turno", Amount: d("50000"), Taxable: true},
		{Name: "Sala cuna", Amount: d("30000"), Taxable: false},
	}

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.TaxableBonuses.Equal(d("50000")))
	assert.True(t, b.NonTaxableBonuses.Equal(d("30000")))
	assert.True(t, b.TaxableGross.Equal(d("850000")))
	assert.True(t, b.NonTaxableGross.Equal(d("30000")))
}

func TestSimulateEmployerProvisions(t *testing.T) {
	in := baseInput()
	in.WithEmployerProvisions = true

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.VacationProvision.Equal(d("66640")), "vacation = %s", b.VacationProvision)
	assert.True(t, b.SeveranceProvision.Equal(d("32880")), "severance = %s", b.SeveranceProvision)
	assert.True(t, b.EmployerCost.Equal(d("938080")), "employer cost = %s", b.EmployerCost)
}

func TestSimulateFixedTermContract(t *testing.T) {
	in := baseInput()
	in.ContractType = legalparams.ContractFixedTerm

	b, err := Simulate(in, testSnapshot())
	require.NoError(t, err)
	assert.True(t, b.AFCDeduction.IsZero(), "afc = %s", b.AFCDeduction)
	assert.True(t, b.EmployerAFC.Equal(d("24000")), "employer afc = %s", b.EmployerAFC)
}

func TestSimulateUnknownAFP(t *testing.T) {
	in := baseInput()
	in.AFPCode = "NOEXISTE"

	_, err := Simulate(in, testSnapshot())
	assert.ErrorIs(t, err, legalparams.ErrUnknownAFPCode)
}

func TestSimulateUnknownContractType(t *testing.T) {
	in := baseInput()
	in.ContractType = legalparams.ContractType("seasonal")

	_, err := Simulate(in, testSnapshot())
	assert.ErrorIs(t, err, legalparams.ErrUnknownContract)
}

func TestSimulateDeterministic(t *testing.T) {
	in := baseInput()
	in.GratificationPolicy = salary.GratificationAutomatic
	in.Fact.Overtime50Hours = d("7.5")
	snap := testSnapshot()

	first, err := Simulate(in, snap)
	require.NoError(t, err)
	second, err := Simulate(in, snap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulateMonotonicInDaysWorked(t *testing.T) {
	snap := testSnapshot()
	prev := decimal.Zero
	for _, days := range []int{5, 10, 20, 30} {
		in := baseInput()
		in.Fact = attendance.Fact{DaysWorked: days, TotalDaysMonth: 30, ScheduledDays: 30}
		b, err := Simulate(in, snap)
		require.NoError(t, err)
		assert.True(t, b.NetSalary.GreaterThanOrEqual(prev),
			"net for %d days (%s) below previous (%s)", days, b.NetSalary, prev)
		prev = b.NetSalary
	}
}

// The accounting identity must hold for any input: every peso of gross ends up
// either in the net or in a deduction, and every line item is a whole amount.
func TestSimulateRoundingIdentity(t *testing.T) {
	snap := testSnapshot()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		in := baseInput()
		in.BaseSalary = decimal.NewFromInt(int64(400000 + rng.Intn(4000000)))
		in.MealAllowance = decimal.NewFromInt(int64(rng.Intn(100000)))
		in.TransportAllowance = decimal.NewFromInt(int64(rng.Intn(100000)))
		in.Commissions = decimal.NewFromInt(int64(rng.Intn(300000)))
		in.Fact = attendance.Fact{
			DaysWorked:      1 + rng.Intn(30),
			TotalDaysMonth:  30,
			ScheduledDays:   30,
			Overtime50Hours: decimal.NewFromInt(int64(rng.Intn(20))),
		}
		if rng.Intn(2) == 0 {
			in.GratificationPolicy = salary.GratificationAutomatic
		}

		b, err := Simulate(in, snap)
		require.NoError(t, err)
		if b.NegativeNet {
			continue
		}

		gross := b.TaxableGross.Add(b.NonTaxableGross)
		sum := b.NetSalary.Add(b.TotalDeductions)
		assert.True(t, sum.Equal(gross),
			"net %s + deductions %s != gross %s (case %d)", b.NetSalary, b.TotalDeductions, gross, i)

		for name, v := range map[string]decimal.Decimal{
			"prorated_base": b.ProratedBase,
			"overtime":      b.OvertimePay,
			"gratification": b.Gratification,
			"pension":       b.PensionDeduction,
			"health":        b.HealthDeduction,
			"afc":           b.AFCDeduction,
			"income_tax":    b.IncomeTax,
			"net":           b.NetSalary,
		} {
			assert.True(t, v.Equal(v.Round(0)), "%s not a whole amount: %s (case %d)", name, v, i)
		}
	}
}

func TestMarginalTax(t *testing.T) {
	snap := testSnapshot()
	cases := []struct {
		base string
		want string
	}{
		{"0", "0"},
		{"-100", "0"},
		{"850000", "0"},
		{"900000", "2000"},
		{"1900000", "42000"},
		{"2000000", "50000"},
	}
	for _, c := range cases {
		got := marginalTax(d(c.base), snap.TaxBrackets)
		assert.True(t, got.Equal(d(c.want)), "marginalTax(%s) = %s, want %s", c.base, got, c.want)
	}
}
