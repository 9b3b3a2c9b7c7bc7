package export

import (
	"context"
	"fmt"

	"github.com/Cryptobal/opai-sub012/internal/domain/export"
	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	"github.com/go-chi/jwtauth/v5"
)

// Service renders export files from persisted settlements. Exports never
// re-simulate: a run must be computed (draft or later) before it can be
// exported.
type Service struct {
	runRepo        settlement.RunRepository
	settlementRepo settlement.Repository
	guardRepo      guard.ProfileRepository
}

func NewService(
	runRepo settlement.RunRepository,
	settlementRepo settlement.Repository,
	guardRepo guard.ProfileRepository,
) *Service {
	return &Service{
		runRepo:        runRepo,
		settlementRepo: settlementRepo,
		guardRepo:      guardRepo,
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

// Export builds the requested file for the run.
func (s *Service) Export(ctx context.Context, runID string, kind export.Kind) (export.File, error) {
	if !kind.Valid() {
		return export.File{}, export.ErrUnknownKind
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return export.File{}, err
	}

	run, err := s.runRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return export.File{}, err
	}
	if run.Status == settlement.RunOpen {
		return export.File{}, settlement.ErrRunNotExportable
	}

	settlements, err := s.settlementRepo.ListByRun(ctx, runID, companyID)
	if err != nil {
		return export.File{}, err
	}

	profiles, err := s.profilesByGuard(ctx, companyID, settlements)
	if err != nil {
		return export.File{}, err
	}

	switch kind {
	case export.KindContributions:
		return BuildContributions(runID, settlements, profiles), nil
	case export.KindLedger:
		return BuildLedger(runID, settlements, profiles), nil
	case export.KindBank:
		return BuildBank(runID, run.Year, run.Month, settlements, profiles), nil
	default:
		return export.File{}, export.ErrUnknownKind
	}
}

// Report builds the file and returns only its omission report.
func (s *Service) Report(ctx context.Context, runID string, kind export.Kind) (export.Report, error) {
	file, err := s.Export(ctx, runID, kind)
	if err != nil {
		return export.Report{}, err
	}
	return file.Report, nil
}

func (s *Service) profilesByGuard(ctx context.Context, companyID string, settlements []settlement.Settlement) (map[string]guard.PayoutProfile, error) {
	profiles := make(map[string]guard.PayoutProfile, len(settlements))
	for _, stl := range settlements {
		if _, ok := profiles[stl.GuardID]; ok {
			continue
		}
		profile, err := s.guardRepo.GetPayoutProfile(ctx, companyID, stl.GuardID)
		if err != nil {
			// Missing profiles surface as per-row omissions, not a failed file.
			continue
		}
		profiles[stl.GuardID] = profile
	}
	return profiles, nil
}
