package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/advance"
	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/Cryptobal/opai-sub012/internal/repository/postgresql"
	payslipservice "github.com/Cryptobal/opai-sub012/internal/service/payslip"
	"github.com/Cryptobal/opai-sub012/internal/service/payslipdoc"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Service runs settlement batches: open a run pinned to a legal parameter
// snapshot, compute every active guard through the simulation engine with a
// bounded worker pool, then walk the run through approval and payment.
type Service struct {
	db             *database.DB
	runRepo        settlement.RunRepository
	settlementRepo settlement.Repository
	snapRepo       legalparams.SnapshotRepository
	guardRepo      guard.ProfileRepository
	advanceRepo    advance.Repository
	payslipService *payslipservice.Service
	workers        int
	logger         *slog.Logger
}

func NewService(
	db *database.DB,
	runRepo settlement.RunRepository,
	settlementRepo settlement.Repository,
	snapRepo legalparams.SnapshotRepository,
	guardRepo guard.ProfileRepository,
	advanceRepo advance.Repository,
	payslipService *payslipservice.Service,
	workers int,
	logger *slog.Logger,
) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		db:             db,
		runRepo:        runRepo,
		settlementRepo: settlementRepo,
		snapRepo:       snapRepo,
		guardRepo:      guardRepo,
		advanceRepo:    advanceRepo,
		payslipService: payslipService,
		workers:        workers,
		logger:         logger,
	}
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

// OpenRun creates the period's run and pins the legal parameter snapshot in
// force at the period start. Every guard in the batch is computed against the
// pinned snapshot, even if a newer one is imported mid-run.
func (s *Service) OpenRun(ctx context.Context, req settlement.OpenRunRequest) (settlement.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return settlement.RunResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return settlement.RunResponse{}, err
	}

	periodStart := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	snap, err := s.snapRepo.ResolveAsOf(ctx, companyID, periodStart)
	if err != nil {
		return settlement.RunResponse{}, err
	}

	if _, err := s.runRepo.GetOpenRunForPeriod(ctx, companyID, req.Year, req.Month); err == nil {
		return settlement.RunResponse{}, settlement.ErrRunExists
	} else if !errors.Is(err, settlement.ErrRunNotFound) {
		return settlement.RunResponse{}, err
	}

	run, err := s.runRepo.CreateRun(ctx, settlement.Run{
		CompanyID:  companyID,
		Year:       req.Year,
		Month:      req.Month,
		SnapshotID: snap.ID,
		Status:     settlement.RunOpen,
	})
	if err != nil {
		return settlement.RunResponse{}, err
	}

	return toRunResponse(run), nil
}

// ComputeRun processes every active guard of the run's company. Guards are
// computed concurrently by a bounded pool; each result is written in its own
// transaction so a crash mid-run leaves a resumable state. Per-guard failures
// become omissions in the run report, never an aborted batch.
func (s *Service) ComputeRun(ctx context.Context, runID string, req settlement.ComputeRunRequest) (settlement.RunReport, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return settlement.RunReport{}, err
	}

	run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return settlement.RunReport{}, err
	}
	if run.Status == settlement.RunPaid || run.Status == settlement.RunApproved {
		return settlement.RunReport{}, settlement.ErrInvalidTransition
	}

	var report settlement.RunReport

	// The advisory lock lives in its own transaction for the duration of the
	// compute; per-guard writes use separate pool connections so the lock
	// transaction stays idle until release.
	err = postgresql.WithTransaction(ctx, s.db, func(lockCtx context.Context) error {
		locked, err := s.runRepo.TryAdvisoryLock(lockCtx, companyID, run.Year, run.Month)
		if err != nil {
			return err
		}
		if !locked {
			return settlement.ErrConcurrentRunConflict
		}

		report, err = s.compute(ctx, run, req.Force)
		return err
	})
	if err != nil {
		return settlement.RunReport{}, err
	}

	if err := s.runRepo.UpdateRunCounts(ctx, run.ID, companyID, report.Computed, len(report.Omissions)); err != nil {
		return settlement.RunReport{}, err
	}
	if run.Status == settlement.RunOpen {
		if err := s.runRepo.UpdateRunStatus(ctx, run.ID, companyID, settlement.RunDraft, nil); err != nil {
			return settlement.RunReport{}, err
		}
	}

	return report, nil
}

func (s *Service) compute(ctx context.Context, run settlement.Run, force bool) (settlement.RunReport, error) {
	snap, err := s.snapRepo.GetByID(ctx, run.SnapshotID, run.CompanyID)
	if err != nil {
		return settlement.RunReport{}, err
	}

	guards, err := s.guardRepo.ListActive(ctx, run.CompanyID)
	if err != nil {
		return settlement.RunReport{}, err
	}

	advances, err := s.periodAdvances(ctx, run.CompanyID, run.Year, run.Month)
	if err != nil {
		return settlement.RunReport{}, err
	}

	report := settlement.RunReport{RunID: run.ID}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, profile := range guards {
		profile := profile
		g.Go(func() error {
			omission, computed := s.computeGuard(gctx, run, snap, profile, advances[profile.GuardID], force)

			mu.Lock()
			defer mu.Unlock()
			if omission != nil {
				report.Omissions = append(report.Omissions, *omission)
			} else if computed {
				report.Computed++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return settlement.RunReport{}, err
	}

	s.logger.Info("settlement run computed",
		slog.String("run_id", run.ID),
		slog.Int("computed", report.Computed),
		slog.Int("omissions", len(report.Omissions)),
	)
	return report, nil
}

// computeGuard handles one guard end to end. A non-nil omission means the
// guard was excluded; computed reports whether a settlement row now exists.
func (s *Service) computeGuard(
	ctx context.Context,
	run settlement.Run,
	snap legalparams.Snapshot,
	profile guard.PayoutProfile,
	advanceAmount decimal.Decimal,
	force bool,
) (*settlement.Omission, bool) {
	omit := func(reason string) (*settlement.Omission, bool) {
		return &settlement.Omission{GuardID: profile.GuardID, GuardName: profile.FullName, Reason: reason}, false
	}

	existing, err := s.settlementRepo.GetCurrentForGuardPeriod(ctx, run.CompanyID, profile.GuardID, run.Year, run.Month)
	switch {
	case err == nil && existing.Status == settlement.StatusPaid:
		if force {
			return omit(settlement.ErrSettlementAlreadyPaid.Error())
		}
		return nil, true
	case err == nil && !force:
		// Resume semantics: an existing draft is kept as computed.
		return nil, true
	case err != nil && !errors.Is(err, settlement.ErrSettlementNotFound):
		return omit(err.Error())
	}

	in, err := s.payslipService.BuildInput(ctx, run.CompanyID, profile.GuardID, run.Year, run.Month)
	if err != nil {
		switch {
		case errors.Is(err, salary.ErrNoSalaryStructure):
			return omit(salary.ErrNoSalaryStructure.Error())
		case errors.Is(err, attendance.ErrNoAttendanceData):
			return omit(attendance.ErrNoAttendanceData.Error())
		default:
			return omit(err.Error())
		}
	}

	if advanceAmount.IsPositive() {
		in.ExtraDeductions = append(in.ExtraDeductions, payslip.DeductionLine{
			Name:   "Anticipo",
			Amount: advanceAmount,
		})
	}
	in.WithEmployerProvisions = true

	breakdown, err := payslipservice.Simulate(in, snap)
	if err != nil {
		return omit(err.Error())
	}

	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		_, err := s.settlementRepo.UpsertDraft(txCtx, settlement.Settlement{
			RunID:        run.ID,
			CompanyID:    run.CompanyID,
			GuardID:      profile.GuardID,
			Year:         run.Year,
			Month:        run.Month,
			SnapshotID:   run.SnapshotID,
			Source:       string(in.Fact.Source),
			AFPCode:      in.AFPCode,
			HealthScheme: string(in.HealthScheme),
			Breakdown:    breakdown,
			Status:       settlement.StatusDraft,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, settlement.ErrSettlementAlreadyPaid) {
			return omit(settlement.ErrSettlementAlreadyPaid.Error())
		}
		s.logger.Error("settlement write failed",
			slog.String("run_id", run.ID),
			slog.String("guard_id", profile.GuardID),
			slog.Any("error", err),
		)
		return omit(err.Error())
	}

	return nil, true
}

// periodAdvances maps guard id to the period's advance amount. Only approved
// or paid processes deduct from the settlement.
func (s *Service) periodAdvances(ctx context.Context, companyID string, year, month int) (map[string]decimal.Decimal, error) {
	process, err := s.advanceRepo.GetProcessForPeriod(ctx, companyID, year, month)
	if errors.Is(err, advance.ErrProcessNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if process.Status == advance.StatusDraft {
		return nil, nil
	}

	items, err := s.advanceRepo.ListItems(ctx, process.ID, companyID)
	if err != nil {
		return nil, err
	}

	amounts := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		amounts[item.GuardID] = item.Amount
	}
	return amounts, nil
}

// Transition moves a run forward: draft → approved → paid. MarkPaid flips
// every settlement of the run to paid and finalizes the period's approved
// advance process.
func (s *Service) Transition(ctx context.Context, runID string, req settlement.TransitionRunRequest) (settlement.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return settlement.RunResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return settlement.RunResponse{}, err
	}

	run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return settlement.RunResponse{}, err
	}

	next := settlement.RunStatus(req.Status)
	if !run.CanTransitionTo(next) {
		return settlement.RunResponse{}, settlement.ErrInvalidTransition
	}

	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		switch next {
		case settlement.RunApproved:
			if err := s.settlementRepo.MarkRunApproved(txCtx, run.ID, companyID); err != nil {
				return err
			}
			return s.runRepo.UpdateRunStatus(txCtx, run.ID, companyID, next, nil)

		case settlement.RunPaid:
			paid, err := s.settlementRepo.MarkRunPaid(txCtx, run.ID, companyID)
			if err != nil {
				return err
			}
			if err := s.runRepo.UpdateRunStatus(txCtx, run.ID, companyID, next, &userID); err != nil {
				return err
			}
			if err := s.finalizeAdvanceProcess(txCtx, companyID, run.Year, run.Month); err != nil {
				return err
			}
			s.logger.Info("settlement run paid",
				slog.String("run_id", run.ID),
				slog.Int64("settlements", paid),
			)
			return nil

		default:
			return settlement.ErrInvalidTransition
		}
	})
	if err != nil {
		return settlement.RunResponse{}, err
	}

	updated, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return settlement.RunResponse{}, err
	}
	return toRunResponse(updated), nil
}

func (s *Service) finalizeAdvanceProcess(ctx context.Context, companyID string, year, month int) error {
	process, err := s.advanceRepo.GetProcessForPeriod(ctx, companyID, year, month)
	if errors.Is(err, advance.ErrProcessNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if process.Status != advance.StatusApproved {
		return nil
	}

	if _, err := s.advanceRepo.MarkItemsPaid(ctx, process.ID, companyID); err != nil {
		return err
	}
	return s.advanceRepo.UpdateProcessStatus(ctx, process.ID, companyID, advance.StatusPaid)
}

// Correct supersedes a settlement with a freshly recomputed version against
// the run's pinned snapshot. The superseded row stays readable for audit.
func (s *Service) Correct(ctx context.Context, settlementID string) (settlement.SettlementResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return settlement.SettlementResponse{}, err
	}

	current, err := s.settlementRepo.GetByID(ctx, settlementID, companyID)
	if err != nil {
		return settlement.SettlementResponse{}, err
	}
	if current.Superseded {
		return settlement.SettlementResponse{}, settlement.ErrSettlementNotFound
	}

	snap, err := s.snapRepo.GetByID(ctx, current.SnapshotID, companyID)
	if err != nil {
		return settlement.SettlementResponse{}, err
	}

	in, err := s.payslipService.BuildInput(ctx, companyID, current.GuardID, current.Year, current.Month)
	if err != nil {
		return settlement.SettlementResponse{}, err
	}
	in.WithEmployerProvisions = true

	breakdown, err := payslipservice.Simulate(in, snap)
	if err != nil {
		return settlement.SettlementResponse{}, err
	}

	corrected := settlement.Settlement{
		RunID:        current.RunID,
		CompanyID:    companyID,
		GuardID:      current.GuardID,
		Year:         current.Year,
		Month:        current.Month,
		SnapshotID:   current.SnapshotID,
		Source:       string(in.Fact.Source),
		AFPCode:      in.AFPCode,
		HealthScheme: string(in.HealthScheme),
		Breakdown:    breakdown,
		Status:       settlement.StatusDraft,
	}

	var saved settlement.Settlement
	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		saved, err = s.settlementRepo.Supersede(txCtx, current, corrected)
		return err
	})
	if err != nil {
		return settlement.SettlementResponse{}, err
	}

	return toSettlementResponse(saved), nil
}

// RenderPayslip renders the settlement's one-page payslip PDF from stored
// values.
func (s *Service) RenderPayslip(ctx context.Context, settlementID string) ([]byte, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	stl, err := s.settlementRepo.GetByID(ctx, settlementID, companyID)
	if err != nil {
		return nil, err
	}

	profile, err := s.guardRepo.GetPayoutProfile(ctx, companyID, stl.GuardID)
	if err != nil {
		return nil, err
	}

	return payslipdoc.Render(stl, profile)
}

// ========== QUERIES ==========

func (s *Service) GetRun(ctx context.Context, runID string) (settlement.RunResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return settlement.RunResponse{}, err
	}

	run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return settlement.RunResponse{}, err
	}
	return toRunResponse(run), nil
}

func (s *Service) ListRuns(ctx context.Context, filter settlement.RunFilter) (settlement.ListRunResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return settlement.ListRunResponse{}, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	runs, total, err := s.runRepo.ListRuns(ctx, companyID, filter)
	if err != nil {
		return settlement.ListRunResponse{}, err
	}

	data := make([]settlement.RunResponse, 0, len(runs))
	for _, run := range runs {
		data = append(data, toRunResponse(run))
	}
	return settlement.ListRunResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *Service) ListByRun(ctx context.Context, runID string) ([]settlement.SettlementResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	settlements, err := s.settlementRepo.ListByRun(ctx, runID, companyID)
	if err != nil {
		return nil, err
	}
	return toSettlementResponses(settlements), nil
}

func (s *Service) ListByGuard(ctx context.Context, guardID string, limit int) ([]settlement.SettlementResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	settlements, err := s.settlementRepo.ListByGuard(ctx, companyID, guardID, limit)
	if err != nil {
		return nil, err
	}
	return toSettlementResponses(settlements), nil
}

func (s *Service) GetSettlement(ctx context.Context, id string) (settlement.SettlementResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return settlement.SettlementResponse{}, err
	}

	stl, err := s.settlementRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return settlement.SettlementResponse{}, err
	}
	return toSettlementResponse(stl), nil
}

func toRunResponse(run settlement.Run) settlement.RunResponse {
	resp := settlement.RunResponse{
		ID:            run.ID,
		Year:          run.Year,
		Month:         run.Month,
		SnapshotID:    run.SnapshotID,
		Status:        string(run.Status),
		ComputedCount: run.ComputedCount,
		OmissionCount: run.OmissionCount,
	}
	if run.PaidAt != nil {
		paidAt := run.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

func toSettlementResponse(s settlement.Settlement) settlement.SettlementResponse {
	resp := settlement.SettlementResponse{
		ID:           s.ID,
		RunID:        s.RunID,
		GuardID:      s.GuardID,
		Year:         s.Year,
		Month:        s.Month,
		SnapshotID:   s.SnapshotID,
		Source:       s.Source,
		AFPCode:      s.AFPCode,
		HealthScheme: s.HealthScheme,
		Breakdown:    s.Breakdown,
		Status:       string(s.Status),
		Version:      s.Version,
		Superseded:   s.Superseded,
	}
	if s.GuardName != nil {
		resp.GuardName = *s.GuardName
	}
	if s.GuardLegalID != nil {
		resp.GuardLegalID = *s.GuardLegalID
	}
	if s.PaidAt != nil {
		paidAt := s.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

func toSettlementResponses(settlements []settlement.Settlement) []settlement.SettlementResponse {
	responses := make([]settlement.SettlementResponse, 0, len(settlements))
	for _, s := range settlements {
		responses = append(responses, toSettlementResponse(s))
	}
	return responses
}
