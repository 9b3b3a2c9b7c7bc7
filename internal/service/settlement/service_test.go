package settlement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/advance"
	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	payslipservice "github.com/Cryptobal/opai-sub012/internal/service/payslip"
	salaryservice "github.com/Cryptobal/opai-sub012/internal/service/salary"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID = "co-1"
	testUserID    = "u-1"
	testYear      = 2025
	testMonth     = 3
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func claimsContext(t *testing.T) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"company_id": testCompanyID,
		"user_id":    testUserID,
		"type":       "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

// ========== FAKE REPOSITORIES ==========

func periodKey(companyID, guardID string, year, month int) string {
	return fmt.Sprintf("%s|%s|%d|%d", companyID, guardID, year, month)
}

type fakeRunRepo struct {
	mu         sync.Mutex
	runs       map[string]settlement.Run
	seq        int
	lockDenied bool
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[string]settlement.Run)}
}

func (r *fakeRunRepo) CreateRun(_ context.Context, run settlement.Run) (settlement.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	run.ID = fmt.Sprintf("run-%d", r.seq)
	run.CreatedAt = time.Now()
	r.runs[run.ID] = run
	return run, nil
}

func (r *fakeRunRepo) GetRunByID(_ context.Context, id, companyID string) (settlement.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.CompanyID != companyID {
		return settlement.Run{}, settlement.ErrRunNotFound
	}
	return run, nil
}

func (r *fakeRunRepo) GetOpenRunForPeriod(_ context.Context, companyID string, year, month int) (settlement.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.CompanyID == companyID && run.Year == year && run.Month == month && run.Status != settlement.RunPaid {
			return run, nil
		}
	}
	return settlement.Run{}, settlement.ErrRunNotFound
}

func (r *fakeRunRepo) ListRuns(_ context.Context, companyID string, _ settlement.RunFilter) ([]settlement.Run, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var runs []settlement.Run
	for _, run := range r.runs {
		if run.CompanyID == companyID {
			runs = append(runs, run)
		}
	}
	return runs, int64(len(runs)), nil
}

func (r *fakeRunRepo) UpdateRunStatus(_ context.Context, id, companyID string, status settlement.RunStatus, paidBy *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.CompanyID != companyID {
		return settlement.ErrRunNotFound
	}
	run.Status = status
	if status == settlement.RunPaid {
		now := time.Now()
		run.PaidAt = &now
		run.PaidBy = paidBy
	}
	r.runs[id] = run
	return nil
}

func (r *fakeRunRepo) UpdateRunCounts(_ context.Context, id, companyID string, computed, omissions int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.CompanyID != companyID {
		return settlement.ErrRunNotFound
	}
	run.ComputedCount = computed
	run.OmissionCount = omissions
	r.runs[id] = run
	return nil
}

func (r *fakeRunRepo) TryAdvisoryLock(_ context.Context, _ string, _, _ int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.lockDenied, nil
}

type fakeSettlementRepo struct {
	mu   sync.Mutex
	rows map[string]settlement.Settlement
	seq  int
}

func newFakeSettlementRepo() *fakeSettlementRepo {
	return &fakeSettlementRepo{rows: make(map[string]settlement.Settlement)}
}

func (r *fakeSettlementRepo) currentFor(companyID, guardID string, year, month int) (settlement.Settlement, bool) {
	for _, row := range r.rows {
		if row.CompanyID == companyID && row.GuardID == guardID &&
			row.Year == year && row.Month == month && !row.Superseded {
			return row, true
		}
	}
	return settlement.Settlement{}, false
}

func (r *fakeSettlementRepo) UpsertDraft(_ context.Context, s settlement.Settlement) (settlement.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.currentFor(s.CompanyID, s.GuardID, s.Year, s.Month); ok {
		if existing.Status == settlement.StatusPaid {
			return settlement.Settlement{}, settlement.ErrSettlementAlreadyPaid
		}
		s.ID = existing.ID
		s.Version = existing.Version
		s.CreatedAt = existing.CreatedAt
		r.rows[s.ID] = s
		return s, nil
	}
	r.seq++
	s.ID = fmt.Sprintf("st-%d", r.seq)
	s.Version = 1
	s.CreatedAt = time.Now()
	r.rows[s.ID] = s
	return s, nil
}

func (r *fakeSettlementRepo) GetByID(_ context.Context, id, companyID string) (settlement.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.CompanyID != companyID {
		return settlement.Settlement{}, settlement.ErrSettlementNotFound
	}
	return row, nil
}

func (r *fakeSettlementRepo) GetCurrentForGuardPeriod(_ context.Context, companyID, guardID string, year, month int) (settlement.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.currentFor(companyID, guardID, year, month)
	if !ok {
		return settlement.Settlement{}, settlement.ErrSettlementNotFound
	}
	return row, nil
}

func (r *fakeSettlementRepo) ListByRun(_ context.Context, runID, companyID string) ([]settlement.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []settlement.Settlement
	for _, row := range r.rows {
		if row.RunID == runID && row.CompanyID == companyID && !row.Superseded {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (r *fakeSettlementRepo) ListByGuard(_ context.Context, companyID, guardID string, _ int) ([]settlement.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []settlement.Settlement
	for _, row := range r.rows {
		if row.CompanyID == companyID && row.GuardID == guardID && !row.Superseded {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (r *fakeSettlementRepo) MarkRunPaid(_ context.Context, runID, companyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	now := time.Now()
	for id, row := range r.rows {
		if row.RunID == runID && row.CompanyID == companyID && !row.Superseded && row.Status != settlement.StatusPaid {
			row.Status = settlement.StatusPaid
			row.PaidAt = &now
			r.rows[id] = row
			count++
		}
	}
	return count, nil
}

func (r *fakeSettlementRepo) MarkRunApproved(_ context.Context, runID, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.RunID == runID && row.CompanyID == companyID && !row.Superseded && row.Status == settlement.StatusDraft {
			row.Status = settlement.StatusApproved
			r.rows[id] = row
		}
	}
	return nil
}

func (r *fakeSettlementRepo) Supersede(_ context.Context, old, corrected settlement.Settlement) (settlement.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.rows[old.ID]
	if !ok {
		return settlement.Settlement{}, settlement.ErrSettlementNotFound
	}
	prev.Superseded = true
	r.rows[old.ID] = prev

	r.seq++
	corrected.ID = fmt.Sprintf("st-%d", r.seq)
	corrected.Version = old.Version + 1
	corrected.CreatedAt = time.Now()
	r.rows[corrected.ID] = corrected
	return corrected, nil
}

// setPaid flips a guard's current settlement to paid, simulating an earlier
// finished run.
func (r *fakeSettlementRepo) setPaid(guardID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.GuardID == guardID && !row.Superseded {
			row.Status = settlement.StatusPaid
			r.rows[id] = row
		}
	}
}

type fakeSnapshotRepo struct {
	snaps map[string]legalparams.Snapshot
}

func (r *fakeSnapshotRepo) Create(_ context.Context, snap legalparams.Snapshot) (legalparams.Snapshot, error) {
	r.snaps[snap.ID] = snap
	return snap, nil
}

func (r *fakeSnapshotRepo) GetByID(_ context.Context, id, companyID string) (legalparams.Snapshot, error) {
	snap, ok := r.snaps[id]
	if !ok || snap.CompanyID != companyID {
		return legalparams.Snapshot{}, legalparams.ErrParameterNotFound
	}
	return snap, nil
}

func (r *fakeSnapshotRepo) ResolveAsOf(_ context.Context, companyID string, asOf time.Time) (legalparams.Snapshot, error) {
	var best legalparams.Snapshot
	found := false
	for _, snap := range r.snaps {
		if snap.CompanyID != companyID || snap.EffectiveFrom.After(asOf) {
			continue
		}
		if !found || snap.EffectiveFrom.After(best.EffectiveFrom) {
			best = snap
			found = true
		}
	}
	if !found {
		return legalparams.Snapshot{}, legalparams.ErrParameterNotFound
	}
	return best, nil
}

func (r *fakeSnapshotRepo) List(_ context.Context, companyID string) ([]legalparams.Snapshot, error) {
	var snaps []legalparams.Snapshot
	for _, snap := range r.snaps {
		if snap.CompanyID == companyID {
			snaps = append(snaps, snap)
		}
	}
	return snaps, nil
}

type fakeGuardRepo struct {
	profiles []guard.PayoutProfile
}

func (r *fakeGuardRepo) GetPayoutProfile(_ context.Context, companyID, guardID string) (guard.PayoutProfile, error) {
	for _, p := range r.profiles {
		if p.CompanyID == companyID && p.GuardID == guardID {
			return p, nil
		}
	}
	return guard.PayoutProfile{}, guard.ErrGuardNotFound
}

func (r *fakeGuardRepo) ListActive(_ context.Context, companyID string) ([]guard.PayoutProfile, error) {
	var active []guard.PayoutProfile
	for _, p := range r.profiles {
		if p.CompanyID == companyID && p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

type fakeAdvanceRepo struct {
	mu      sync.Mutex
	process *advance.Process
	items   []advance.Item
}

func (r *fakeAdvanceRepo) CreateProcess(_ context.Context, p advance.Process) (advance.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = "ap-1"
	r.process = &p
	return p, nil
}

func (r *fakeAdvanceRepo) GetProcessByID(_ context.Context, id, companyID string) (advance.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.process == nil || r.process.ID != id || r.process.CompanyID != companyID {
		return advance.Process{}, advance.ErrProcessNotFound
	}
	return *r.process, nil
}

func (r *fakeAdvanceRepo) GetProcessForPeriod(_ context.Context, companyID string, year, month int) (advance.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.process == nil || r.process.CompanyID != companyID || r.process.Year != year || r.process.Month != month {
		return advance.Process{}, advance.ErrProcessNotFound
	}
	return *r.process, nil
}

func (r *fakeAdvanceRepo) ListProcesses(_ context.Context, companyID string) ([]advance.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.process == nil || r.process.CompanyID != companyID {
		return nil, nil
	}
	return []advance.Process{*r.process}, nil
}

func (r *fakeAdvanceRepo) UpdateProcessStatus(_ context.Context, id, companyID string, status advance.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.process == nil || r.process.ID != id || r.process.CompanyID != companyID {
		return advance.ErrProcessNotFound
	}
	r.process.Status = status
	return nil
}

func (r *fakeAdvanceRepo) CreateItem(_ context.Context, item advance.Item, _ string) (advance.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = fmt.Sprintf("ai-%d", len(r.items)+1)
	r.items = append(r.items, item)
	return item, nil
}

func (r *fakeAdvanceRepo) ListItems(_ context.Context, processID, _ string) ([]advance.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []advance.Item
	for _, item := range r.items {
		if item.ProcessID == processID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *fakeAdvanceRepo) RemoveItem(_ context.Context, id, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return advance.ErrItemNotFound
}

func (r *fakeAdvanceRepo) MarkItemsPaid(_ context.Context, processID, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for i, item := range r.items {
		if item.ProcessID == processID && item.Status != advance.StatusPaid {
			r.items[i].Status = advance.StatusPaid
			count++
		}
	}
	return count, nil
}

type fakeStructureRepo struct {
	mu         sync.Mutex
	structures map[string]salary.Structure
}

func (r *fakeStructureRepo) Create(_ context.Context, s salary.Structure) (salary.Structure, error) {
	return s, nil
}

func (r *fakeStructureRepo) GetByID(_ context.Context, _, _ string) (salary.Structure, error) {
	return salary.Structure{}, salary.ErrStructureNotFound
}

func (r *fakeStructureRepo) GetEffectiveForGuard(_ context.Context, _, guardID string, asOf time.Time) (salary.Structure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.structures[guardID]
	if !ok || !s.ActiveAt(asOf) {
		return salary.Structure{}, salary.ErrStructureNotFound
	}
	return s, nil
}

func (r *fakeStructureRepo) GetInstallationDefault(_ context.Context, _, _ string, _ time.Time) (salary.Structure, error) {
	return salary.Structure{}, salary.ErrStructureNotFound
}

func (r *fakeStructureRepo) ListByGuard(_ context.Context, _, _ string) ([]salary.Structure, error) {
	return nil, nil
}

func (r *fakeStructureRepo) Close(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (r *fakeStructureRepo) setBaseSalary(guardID string, amount decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.structures[guardID]
	s.BaseSalary = amount
	r.structures[guardID] = s
}

type fakeBonusRepo struct{}

func (r *fakeBonusRepo) CreateDefinition(_ context.Context, def salary.BonusDefinition) (salary.BonusDefinition, error) {
	return def, nil
}

func (r *fakeBonusRepo) GetDefinitionByID(_ context.Context, _, _ string) (salary.BonusDefinition, error) {
	return salary.BonusDefinition{}, salary.ErrBonusNotFound
}

func (r *fakeBonusRepo) ListDefinitions(_ context.Context, _ string, _ bool) ([]salary.BonusDefinition, error) {
	return nil, nil
}

func (r *fakeBonusRepo) UpdateDefinition(_ context.Context, _ string, _ salary.UpdateBonusDefinitionRequest) error {
	return nil
}

func (r *fakeBonusRepo) Assign(_ context.Context, a salary.BonusAssignment, _ string) (salary.BonusAssignment, error) {
	return a, nil
}

func (r *fakeBonusRepo) ListActiveAssignments(_ context.Context, _, _ string, _ time.Time) ([]salary.BonusAssignment, error) {
	return nil, nil
}

func (r *fakeBonusRepo) RemoveAssignment(_ context.Context, _, _ string) error {
	return nil
}

type fakeFactRepo struct {
	mu    sync.Mutex
	facts map[string]attendance.Fact
}

func (r *fakeFactRepo) GetFact(_ context.Context, companyID, guardID string, year, month int) (attendance.Fact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fact, ok := r.facts[periodKey(companyID, guardID, year, month)]
	if !ok {
		return attendance.Fact{}, attendance.ErrNoAttendanceData
	}
	return fact, nil
}

func (r *fakeFactRepo) Upsert(_ context.Context, fact attendance.Fact) (attendance.Fact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facts[periodKey(fact.CompanyID, fact.GuardID, fact.Year, fact.Month)] = fact
	return fact, nil
}

func (r *fakeFactRepo) ListByPeriod(_ context.Context, _ string, _, _ int) ([]attendance.Fact, error) {
	return nil, nil
}

// ========== FIXTURES ==========

func testSnapshot(id string, effectiveFrom time.Time) legalparams.Snapshot {
	return legalparams.Snapshot{
		ID:                id,
		CompanyID:         testCompanyID,
		EffectiveFrom:     effectiveFrom,
		UFValue:           d("37000"),
		ContributionCapUF: d("84.3"),
		AFCCapUF:          d("126.6"),
		AFPProviders: []legalparams.AFPProvider{
			{Code: "HABITAT", Name: "AFP Habitat", EmployeeRate: d("0.1127"), EmployerSISRate: d("0.0149")},
		},
		HealthPublicRate: d("0.07"),
		AFCRates: map[legalparams.ContractType]legalparams.AFCRate{
			legalparams.ContractIndefinite: {EmployeeRate: d("0.006"), EmployerRate: d("0.024")},
		},
		TaxBrackets: []legalparams.TaxBracket{
			{FromCLP: d("0"), MarginalRate: d("0")},
		},
		GratificationMonthlyCap: d("209396"),
		AccidentInsuranceRate:   d("0.0093"),
		VacationProvisionRate:   d("0.0833"),
		SeveranceProvisionRate:  d("0.0411"),
		Overtime50Multiplier:    d("1.5"),
		Overtime100Multiplier:   d("2"),
	}
}

func testStructure() salary.Structure {
	return salary.Structure{
		BaseSalary:          d("800000"),
		GratificationPolicy: salary.GratificationNone,
		HealthScheme:        salary.HealthFonasa,
		AFPCode:             "HABITAT",
		ContractType:        legalparams.ContractIndefinite,
		MonthlyHours:        d("180"),
		AdvanceMax:          d("200000"),
		EffectiveFrom:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func fullMonthFact(guardID string) attendance.Fact {
	return attendance.Fact{
		CompanyID:      testCompanyID,
		GuardID:        guardID,
		Year:           testYear,
		Month:          testMonth,
		DaysWorked:     30,
		TotalDaysMonth: 30,
		ScheduledDays:  30,
		Source:         attendance.SourceImported,
	}
}

type testEnv struct {
	runs        *fakeRunRepo
	settlements *fakeSettlementRepo
	snaps       *fakeSnapshotRepo
	guards      *fakeGuardRepo
	advances    *fakeAdvanceRepo
	structures  *fakeStructureRepo
	facts       *fakeFactRepo
	service     *Service
}

func newTestEnv(t *testing.T, guardIDs ...string) *testEnv {
	t.Helper()

	snap := testSnapshot("snap-1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	snaps := &fakeSnapshotRepo{snaps: map[string]legalparams.Snapshot{snap.ID: snap}}

	guards := &fakeGuardRepo{}
	structures := &fakeStructureRepo{structures: make(map[string]salary.Structure)}
	facts := &fakeFactRepo{facts: make(map[string]attendance.Fact)}
	for i, id := range guardIDs {
		guards.profiles = append(guards.profiles, guard.PayoutProfile{
			GuardID:   id,
			CompanyID: testCompanyID,
			LegalID:   fmt.Sprintf("1111111%d-1", i),
			FullName:  fmt.Sprintf("Guard %s", id),
			IsActive:  true,
		})
		structures.structures[id] = testStructure()
		fact := fullMonthFact(id)
		facts.facts[periodKey(testCompanyID, id, testYear, testMonth)] = fact
	}

	runs := newFakeRunRepo()
	settlements := newFakeSettlementRepo()
	advances := &fakeAdvanceRepo{}

	salarySvc := salaryservice.NewService(nil, structures, &fakeBonusRepo{})
	payslipSvc := payslipservice.NewService(snaps, facts, salarySvc)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(nil, runs, settlements, snaps, guards, advances, payslipSvc, 4, logger)

	return &testEnv{
		runs:        runs,
		settlements: settlements,
		snaps:       snaps,
		guards:      guards,
		advances:    advances,
		structures:  structures,
		facts:       facts,
		service:     svc,
	}
}

func (e *testEnv) openAndCompute(t *testing.T, ctx context.Context) (settlement.RunResponse, settlement.RunReport) {
	t.Helper()
	run, err := e.service.OpenRun(ctx, settlement.OpenRunRequest{Year: testYear, Month: testMonth})
	require.NoError(t, err)
	report, err := e.service.ComputeRun(ctx, run.ID, settlement.ComputeRunRequest{})
	require.NoError(t, err)
	return run, report
}

// ========== TESTS ==========

func TestOpenRunPinsSnapshot(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	run, err := env.service.OpenRun(ctx, settlement.OpenRunRequest{Year: testYear, Month: testMonth})
	require.NoError(t, err)
	assert.Equal(t, "snap-1", run.SnapshotID)
	assert.Equal(t, string(settlement.RunOpen), run.Status)

	_, err = env.service.OpenRun(ctx, settlement.OpenRunRequest{Year: testYear, Month: testMonth})
	assert.ErrorIs(t, err, settlement.ErrRunExists)
}

func TestComputeRunAllGuards(t *testing.T) {
	env := newTestEnv(t, "g-1", "g-2", "g-3")
	ctx := claimsContext(t)

	run, report := env.openAndCompute(t, ctx)

	assert.Equal(t, 3, report.Computed)
	assert.Empty(t, report.Omissions)

	updated, err := env.service.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(settlement.RunDraft), updated.Status)
	assert.Equal(t, 3, updated.ComputedCount)
	assert.Equal(t, 0, updated.OmissionCount)

	rows, err := env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, string(settlement.StatusDraft), row.Status)
		assert.Equal(t, "snap-1", row.SnapshotID)
		assert.Equal(t, "HABITAT", row.AFPCode)
		assert.Equal(t, "fonasa", row.HealthScheme)
		// 800000 - 90160 pension - 56000 health - 4800 afc
		assert.True(t, row.Breakdown.NetSalary.Equal(d("649040")), "net = %s", row.Breakdown.NetSalary)
	}
}

func TestComputeRunPartialFailure(t *testing.T) {
	env := newTestEnv(t, "g-1", "g-2", "g-3")
	ctx := claimsContext(t)

	// g-2 has no attendance fact, g-3 has no salary structure. Neither may
	// abort the batch.
	delete(env.facts.facts, periodKey(testCompanyID, "g-2", testYear, testMonth))
	delete(env.structures.structures, "g-3")

	_, report := env.openAndCompute(t, ctx)

	assert.Equal(t, 1, report.Computed)
	require.Len(t, report.Omissions, 2)

	reasons := map[string]string{}
	for _, o := range report.Omissions {
		reasons[o.GuardID] = o.Reason
	}
	assert.Equal(t, attendance.ErrNoAttendanceData.Error(), reasons["g-2"])
	assert.Equal(t, salary.ErrNoSalaryStructure.Error(), reasons["g-3"])
}

func TestComputeRunResume(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	run, _ := env.openAndCompute(t, ctx)

	// The structure changes after the first compute. Without force the
	// existing draft is kept; with force it is recomputed.
	env.structures.setBaseSalary("g-1", d("900000"))

	report, err := env.service.ComputeRun(ctx, run.ID, settlement.ComputeRunRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Computed)

	rows, err := env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Breakdown.NetSalary.Equal(d("649040")), "net = %s", rows[0].Breakdown.NetSalary)
	assert.Equal(t, 1, rows[0].Version)

	_, err = env.service.ComputeRun(ctx, run.ID, settlement.ComputeRunRequest{Force: true})
	require.NoError(t, err)

	rows, err = env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// 900000 - 101430 - 63000 - 5400
	assert.True(t, rows[0].Breakdown.NetSalary.Equal(d("730170")), "net = %s", rows[0].Breakdown.NetSalary)
}

func TestComputeRunNeverTouchesPaid(t *testing.T) {
	env := newTestEnv(t, "g-1", "g-2")
	ctx := claimsContext(t)

	run, _ := env.openAndCompute(t, ctx)
	env.settlements.setPaid("g-1")

	// Without force a paid settlement counts as computed and stays as is.
	report, err := env.service.ComputeRun(ctx, run.ID, settlement.ComputeRunRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Computed)
	assert.Empty(t, report.Omissions)

	// Force must not recompute it either; it becomes an omission.
	report, err = env.service.ComputeRun(ctx, run.ID, settlement.ComputeRunRequest{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Computed)
	require.Len(t, report.Omissions, 1)
	assert.Equal(t, "g-1", report.Omissions[0].GuardID)
	assert.Equal(t, settlement.ErrSettlementAlreadyPaid.Error(), report.Omissions[0].Reason)
}

func TestComputeRunLockConflict(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	run, err := env.service.OpenRun(ctx, settlement.OpenRunRequest{Year: testYear, Month: testMonth})
	require.NoError(t, err)

	env.runs.lockDenied = true
	_, err = env.service.ComputeRun(ctx, run.ID, settlement.ComputeRunRequest{})
	assert.ErrorIs(t, err, settlement.ErrConcurrentRunConflict)
}

func TestComputeRunRejectsApprovedRun(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	run, _ := env.openAndCompute(t, ctx)
	_, err := env.service.Transition(ctx, run.ID, settlement.TransitionRunRequest{Status: string(settlement.RunApproved)})
	require.NoError(t, err)

	_, err = env.service.ComputeRun(ctx, run.ID, settlement.ComputeRunRequest{})
	assert.ErrorIs(t, err, settlement.ErrInvalidTransition)
}

func TestTransitionApproveAndPay(t *testing.T) {
	env := newTestEnv(t, "g-1", "g-2")
	ctx := claimsContext(t)

	run, _ := env.openAndCompute(t, ctx)

	approved, err := env.service.Transition(ctx, run.ID, settlement.TransitionRunRequest{Status: string(settlement.RunApproved)})
	require.NoError(t, err)
	assert.Equal(t, string(settlement.RunApproved), approved.Status)

	rows, err := env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, string(settlement.StatusApproved), row.Status)
	}

	paid, err := env.service.Transition(ctx, run.ID, settlement.TransitionRunRequest{Status: string(settlement.RunPaid)})
	require.NoError(t, err)
	assert.Equal(t, string(settlement.RunPaid), paid.Status)
	require.NotNil(t, paid.PaidAt)

	rows, err = env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, string(settlement.StatusPaid), row.Status)
		require.NotNil(t, row.PaidAt)
	}
}

func TestTransitionRejectsSkippingStates(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	run, err := env.service.OpenRun(ctx, settlement.OpenRunRequest{Year: testYear, Month: testMonth})
	require.NoError(t, err)

	// An open run was never computed; it cannot be approved or paid.
	_, err = env.service.Transition(ctx, run.ID, settlement.TransitionRunRequest{Status: string(settlement.RunPaid)})
	assert.ErrorIs(t, err, settlement.ErrInvalidTransition)
	_, err = env.service.Transition(ctx, run.ID, settlement.TransitionRunRequest{Status: string(settlement.RunApproved)})
	assert.ErrorIs(t, err, settlement.ErrInvalidTransition)
}

func TestAdvanceDeductedFromSettlement(t *testing.T) {
	env := newTestEnv(t, "g-1", "g-2")
	ctx := claimsContext(t)

	env.advances.process = &advance.Process{
		ID: "ap-1", CompanyID: testCompanyID, Year: testYear, Month: testMonth,
		Status: advance.StatusApproved,
	}
	env.advances.items = []advance.Item{
		{ID: "ai-1", ProcessID: "ap-1", GuardID: "g-1", Amount: d("100000"), Status: advance.StatusApproved},
	}

	run, report := env.openAndCompute(t, ctx)
	assert.Equal(t, 2, report.Computed)

	rows, err := env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	byGuard := map[string]settlement.SettlementResponse{}
	for _, row := range rows {
		byGuard[row.GuardID] = row
	}

	assert.True(t, byGuard["g-1"].Breakdown.ExtraDeductions.Equal(d("100000")))
	assert.True(t, byGuard["g-1"].Breakdown.NetSalary.Equal(d("549040")), "net = %s", byGuard["g-1"].Breakdown.NetSalary)
	assert.True(t, byGuard["g-2"].Breakdown.ExtraDeductions.IsZero())
	assert.True(t, byGuard["g-2"].Breakdown.NetSalary.Equal(d("649040")))
}

func TestDraftAdvanceProcessDoesNotDeduct(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	env.advances.process = &advance.Process{
		ID: "ap-1", CompanyID: testCompanyID, Year: testYear, Month: testMonth,
		Status: advance.StatusDraft,
	}
	env.advances.items = []advance.Item{
		{ID: "ai-1", ProcessID: "ap-1", GuardID: "g-1", Amount: d("100000"), Status: advance.StatusDraft},
	}

	run, _ := env.openAndCompute(t, ctx)

	rows, err := env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Breakdown.ExtraDeductions.IsZero())
}

func TestMarkPaidFinalizesAdvanceProcess(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	env.advances.process = &advance.Process{
		ID: "ap-1", CompanyID: testCompanyID, Year: testYear, Month: testMonth,
		Status: advance.StatusApproved,
	}
	env.advances.items = []advance.Item{
		{ID: "ai-1", ProcessID: "ap-1", GuardID: "g-1", Amount: d("50000"), Status: advance.StatusApproved},
	}

	run, _ := env.openAndCompute(t, ctx)
	_, err := env.service.Transition(ctx, run.ID, settlement.TransitionRunRequest{Status: string(settlement.RunApproved)})
	require.NoError(t, err)
	_, err = env.service.Transition(ctx, run.ID, settlement.TransitionRunRequest{Status: string(settlement.RunPaid)})
	require.NoError(t, err)

	assert.Equal(t, advance.StatusPaid, env.advances.process.Status)
	assert.Equal(t, advance.StatusPaid, env.advances.items[0].Status)
}

func TestCorrectSupersedesAgainstPinnedSnapshot(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	run, _ := env.openAndCompute(t, ctx)

	// A newer snapshot with a different pension rate arrives after the run was
	// opened. Corrections must still use the run's pinned snapshot.
	newer := testSnapshot("snap-2", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	newer.AFPProviders[0].EmployeeRate = d("0.20")
	env.snaps.snaps["snap-2"] = newer

	rows, err := env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	original := rows[0]

	// Fix the structure, then correct.
	env.structures.setBaseSalary("g-1", d("900000"))
	corrected, err := env.service.Correct(ctx, original.ID)
	require.NoError(t, err)

	assert.Equal(t, "snap-1", corrected.SnapshotID)
	assert.Equal(t, 2, corrected.Version)
	assert.True(t, corrected.Breakdown.NetSalary.Equal(d("730170")), "net = %s", corrected.Breakdown.NetSalary)

	// The superseded row stays readable with its stored breakdown.
	old, err := env.service.GetSettlement(ctx, original.ID)
	require.NoError(t, err)
	assert.True(t, old.Superseded)
	assert.True(t, old.Breakdown.NetSalary.Equal(d("649040")))

	// A second correction of the superseded row is rejected.
	_, err = env.service.Correct(ctx, original.ID)
	assert.ErrorIs(t, err, settlement.ErrSettlementNotFound)
}

func TestStoredBreakdownSurvivesSnapshotChanges(t *testing.T) {
	env := newTestEnv(t, "g-1")
	ctx := claimsContext(t)

	run, _ := env.openAndCompute(t, ctx)

	// Re-reading the settlement after new legal parameters land must return
	// the stored values, not a recomputation.
	newer := testSnapshot("snap-2", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	newer.HealthPublicRate = d("0.10")
	env.snaps.snaps["snap-2"] = newer

	rows, err := env.service.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Breakdown.HealthDeduction.Equal(d("56000")), "health = %s", rows[0].Breakdown.HealthDeduction)
}

func TestGetClaimsMissingCompany(t *testing.T) {
	env := newTestEnv(t, "g-1")

	_, err := env.service.OpenRun(context.Background(), settlement.OpenRunRequest{Year: testYear, Month: testMonth})
	require.Error(t, err)
	assert.False(t, errors.Is(err, settlement.ErrRunNotFound))
}
