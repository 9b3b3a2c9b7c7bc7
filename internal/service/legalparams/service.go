package legalparams

import (
	"context"
	"fmt"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
)

// Service manages the legal parameter registry. Snapshots are insert-only:
// a published snapshot is never edited, corrections are new snapshots with a
// later published_at for the same effective date.
type Service struct {
	db       *database.DB
	snapRepo legalparams.SnapshotRepository
}

func NewService(db *database.DB, snapRepo legalparams.SnapshotRepository) *Service {
	return &Service{db: db, snapRepo: snapRepo}
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

func (s *Service) Import(ctx context.Context, req legalparams.ImportSnapshotRequest) (legalparams.SnapshotResponse, error) {
	if err := req.Validate(); err != nil {
		return legalparams.SnapshotResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return legalparams.SnapshotResponse{}, err
	}

	effectiveFrom, _ := validator.IsValidDate(req.EffectiveFrom)

	snap := legalparams.Snapshot{
		CompanyID:               companyID,
		EffectiveFrom:           effectiveFrom,
		UFValue:                 req.UFValue,
		UTMValue:                req.UTMValue,
		ContributionCapUF:       req.ContributionCapUF,
		AFCCapUF:                req.AFCCapUF,
		AFPProviders:            req.AFPProviders,
		HealthPublicRate:        req.HealthPublicRate,
		AFCRates:                req.AFCRates,
		TaxBrackets:             req.TaxBrackets,
		GratificationMonthlyCap: req.GratificationMonthlyCap,
		DependentAllowance:      req.DependentAllowance,
		AccidentInsuranceRate:   req.AccidentInsuranceRate,
		VacationProvisionRate:   req.VacationProvisionRate,
		SeveranceProvisionRate:  req.SeveranceProvisionRate,
		Overtime50Multiplier:    req.Overtime50Multiplier,
		Overtime100Multiplier:   req.Overtime100Multiplier,
	}

	created, err := s.snapRepo.Create(ctx, snap)
	if err != nil {
		return legalparams.SnapshotResponse{}, err
	}
	return toSnapshotResponse(created), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (legalparams.SnapshotResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return legalparams.SnapshotResponse{}, err
	}

	snap, err := s.snapRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return legalparams.SnapshotResponse{}, err
	}
	return toSnapshotResponse(snap), nil
}

// Resolve returns the snapshot in force at the given date: latest
// effective_from not after asOf, ties broken by published_at.
func (s *Service) Resolve(ctx context.Context, asOf time.Time) (legalparams.SnapshotResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return legalparams.SnapshotResponse{}, err
	}

	snap, err := s.snapRepo.ResolveAsOf(ctx, companyID, asOf)
	if err != nil {
		return legalparams.SnapshotResponse{}, err
	}
	return toSnapshotResponse(snap), nil
}

func (s *Service) List(ctx context.Context) ([]legalparams.SnapshotResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	snaps, err := s.snapRepo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	responses := make([]legalparams.SnapshotResponse, 0, len(snaps))
	for _, snap := range snaps {
		responses = append(responses, toSnapshotResponse(snap))
	}
	return responses, nil
}

func toSnapshotResponse(snap legalparams.Snapshot) legalparams.SnapshotResponse {
	return legalparams.SnapshotResponse{
		ID:                      snap.ID,
		EffectiveFrom:           snap.EffectiveFrom.Format("2006-01-02"),
		PublishedAt:             snap.PublishedAt.Format(time.RFC3339),
		UFValue:                 snap.UFValue,
		UTMValue:                snap.UTMValue,
		ContributionCapUF:       snap.ContributionCapUF,
		AFCCapUF:                snap.AFCCapUF,
		AFPProviders:            snap.AFPProviders,
		HealthPublicRate:        snap.HealthPublicRate,
		AFCRates:                snap.AFCRates,
		TaxBrackets:             snap.TaxBrackets,
		GratificationMonthlyCap: snap.GratificationMonthlyCap,
		DependentAllowance:      snap.DependentAllowance,
		AccidentInsuranceRate:   snap.AccidentInsuranceRate,
		VacationProvisionRate:   snap.VacationProvisionRate,
		SeveranceProvisionRate:  snap.SeveranceProvisionRate,
		Overtime50Multiplier:    snap.Overtime50Multiplier,
		Overtime100Multiplier:   snap.Overtime100Multiplier,
	}
}
