package export

import (
	"strings"
	"testing"

	"github.com/Cryptobal/opai-sub012/internal/domain/export"
	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func testSettlement(guardID, legalID string) settlement.Settlement {
	return settlement.Settlement{
		ID:           "st-" + guardID,
		RunID:        "run-1",
		GuardID:      guardID,
		Year:         2025,
		Month:        3,
		AFPCode:      "HABITAT",
		HealthScheme: "fonasa",
		GuardLegalID: strPtr(legalID),
		Breakdown: payslip.Breakdown{
			ProratedBase:     d("800000"),
			TaxableGross:     d("800000"),
			PensionDeduction: d("90160"),
			HealthDeduction:  d("56000"),
			AFCDeduction:     d("4800"),
			TotalDeductions:  d("150960"),
			NetSalary:        d("649040"),
		},
	}
}

func testProfile(guardID, legalID, name string) guard.PayoutProfile {
	return guard.PayoutProfile{
		GuardID:       guardID,
		LegalID:       legalID,
		FullName:      name,
		BankCode:      strPtr("012"),
		AccountType:   strPtr("vista"),
		AccountNumber: strPtr("123456789"),
		Email:         strPtr("pagos@opai.cl"),
	}
}

func TestBuildContributions(t *testing.T) {
	settlements := []settlement.Settlement{
		testSettlement("g-2", "22222222-6"),
		testSettlement("g-1", "11111111-1"),
	}
	profiles := map[string]guard.PayoutProfile{
		"g-1": testProfile("g-1", "11111111-1", "Ana Rojas"),
		"g-2": testProfile("g-2", "22222222-6", "Luis Soto"),
	}

	file := BuildContributions("run-1", settlements, profiles)

	assert.Equal(t, "contributions_run-1.csv", file.Name)
	assert.Equal(t, 2, file.Report.Rows)
	assert.Empty(t, file.Report.Omissions)

	want := "rut;nombre;base_imponible;afp_codigo;afp_monto;salud_codigo;salud_monto;afc_monto\n" +
		"11111111-1;Ana Rojas;800000;HABITAT;90160;fonasa;56000;4800\n" +
		"22222222-6;Luis Soto;800000;HABITAT;90160;fonasa;56000;4800\n"
	assert.Equal(t, want, string(file.Content))
}

func TestBuildContributionsOmitsMissingAFP(t *testing.T) {
	s := testSettlement("g-1", "11111111-1")
	s.AFPCode = ""
	profiles := map[string]guard.PayoutProfile{
		"g-1": testProfile("g-1", "11111111-1", "Ana Rojas"),
	}

	file := BuildContributions("run-1", []settlement.Settlement{s}, profiles)

	assert.Equal(t, 0, file.Report.Rows)
	require.Len(t, file.Report.Omissions, 1)
	assert.Equal(t, "missing afp code", file.Report.Omissions[0].Reason)
}

func TestBuildLedger(t *testing.T) {
	settlements := []settlement.Settlement{testSettlement("g-1", "11111111-1")}
	profiles := map[string]guard.PayoutProfile{
		"g-1": testProfile("g-1", "11111111-1", "Ana Rojas"),
	}

	file := BuildLedger("run-1", settlements, profiles)

	lines := strings.Split(strings.TrimRight(string(file.Content), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 21, len(strings.Split(lines[0], ";")))
	assert.Equal(t,
		"11111111-1;Ana Rojas;800000;0;0;0;0;0;800000;0;0;0;0;0;90160;56000;4800;0;0;150960;649040",
		lines[1])
}

func TestBuildBank(t *testing.T) {
	settlements := []settlement.Settlement{
		testSettlement("g-2", "22222222-6"),
		testSettlement("g-1", "11111111-1"),
	}
	noBank := testProfile("g-2", "22222222-6", "Luis Soto")
	noBank.BankCode = nil
	noBank.AccountNumber = nil
	profiles := map[string]guard.PayoutProfile{
		"g-1": testProfile("g-1", "11111111-1", "Ana Rojas"),
		"g-2": noBank,
	}

	file := BuildBank("run-1", 2025, 3, settlements, profiles)

	assert.Equal(t, "bank_run-1.csv", file.Name)
	assert.Equal(t, 1, file.Report.Rows)
	require.Len(t, file.Report.Omissions, 1)
	assert.Equal(t, "g-2", file.Report.Omissions[0].GuardID)
	assert.Equal(t, "missing bank account", file.Report.Omissions[0].Reason)

	want := "rut;nombre;banco_codigo;tipo_cuenta;numero_cuenta;monto;email;glosa\n" +
		"11111111-1;Ana Rojas;012;vista;123456789;649040;pagos@opai.cl;Sueldo 2025-03\n"
	assert.Equal(t, want, string(file.Content))
}

func TestBuildRowsSortedByLegalID(t *testing.T) {
	settlements := []settlement.Settlement{
		testSettlement("g-3", "9000000-5"),
		testSettlement("g-1", "11111111-1"),
		testSettlement("g-2", "22222222-6"),
	}
	profiles := map[string]guard.PayoutProfile{
		"g-1": testProfile("g-1", "11111111-1", "Ana Rojas"),
		"g-2": testProfile("g-2", "22222222-6", "Luis Soto"),
		"g-3": testProfile("g-3", "9000000-5", "Zoe Vidal"),
	}

	file := BuildLedger("run-1", settlements, profiles)

	lines := strings.Split(strings.TrimRight(string(file.Content), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "11111111-1;"))
	assert.True(t, strings.HasPrefix(lines[2], "22222222-6;"))
	assert.True(t, strings.HasPrefix(lines[3], "9000000-5;"))
}

func TestBuildMissingProfileOmitted(t *testing.T) {
	settlements := []settlement.Settlement{testSettlement("g-1", "11111111-1")}

	file := BuildLedger("run-1", settlements, map[string]guard.PayoutProfile{})

	assert.Equal(t, 0, file.Report.Rows)
	require.Len(t, file.Report.Omissions, 1)
	assert.Equal(t, "guard profile not found", file.Report.Omissions[0].Reason)
	assert.Equal(t, export.KindLedger, file.Report.Kind)
}
