package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/go-chi/jwtauth/v5"
)

// Service ingests attendance facts from the platform's shift resolver or from
// bulk imports, and serves them to the settlement pipeline.
type Service struct {
	db       *database.DB
	factRepo attendance.FactRepository
}

func NewService(db *database.DB, factRepo attendance.FactRepository) *Service {
	return &Service{db: db, factRepo: factRepo}
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

// Import reconciles one incoming fact against the stored one (matched by
// guard + period) and upserts the result.
func (s *Service) Import(ctx context.Context, req attendance.ImportFactRequest) (attendance.FactResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.FactResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.FactResponse{}, err
	}

	incoming := factFromRequest(companyID, req)

	var existing *attendance.Fact
	stored, err := s.factRepo.GetFact(ctx, companyID, req.GuardID, req.Year, req.Month)
	if err != nil && !errors.Is(err, attendance.ErrNoAttendanceData) {
		return attendance.FactResponse{}, err
	}
	if err == nil {
		existing = &stored
	}

	saved, err := s.factRepo.Upsert(ctx, attendance.Reconcile(existing, incoming))
	if err != nil {
		return attendance.FactResponse{}, err
	}
	return toFactResponse(saved), nil
}

// ImportBatch imports facts one by one; the first failure aborts the batch.
func (s *Service) ImportBatch(ctx context.Context, req attendance.ImportFactsRequest) ([]attendance.FactResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	responses := make([]attendance.FactResponse, 0, len(req.Facts))
	for _, factReq := range req.Facts {
		resp, err := s.Import(ctx, factReq)
		if err != nil {
			return nil, fmt.Errorf("guard %s: %w", factReq.GuardID, err)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *Service) GetFact(ctx context.Context, guardID string, year, month int) (attendance.FactResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.FactResponse{}, err
	}

	fact, err := s.factRepo.GetFact(ctx, companyID, guardID, year, month)
	if err != nil {
		return attendance.FactResponse{}, err
	}
	return toFactResponse(fact), nil
}

func (s *Service) ListByPeriod(ctx context.Context, year, month int) ([]attendance.FactResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	facts, err := s.factRepo.ListByPeriod(ctx, companyID, year, month)
	if err != nil {
		return nil, err
	}

	responses := make([]attendance.FactResponse, 0, len(facts))
	for _, fact := range facts {
		responses = append(responses, toFactResponse(fact))
	}
	return responses, nil
}

func factFromRequest(companyID string, req attendance.ImportFactRequest) attendance.Fact {
	return attendance.Fact{
		CompanyID:        companyID,
		GuardID:          req.GuardID,
		Year:             req.Year,
		Month:            req.Month,
		DaysWorked:       req.DaysWorked,
		DaysAbsent:       req.DaysAbsent,
		MedicalDays:      req.MedicalDays,
		VacationDays:     req.VacationDays,
		UnpaidDays:       req.UnpaidDays,
		TotalDaysMonth:   req.TotalDaysMonth,
		ScheduledDays:    req.ScheduledDays,
		SundaysWorked:    req.SundaysWorked,
		SundaysScheduled: req.SundaysScheduled,
		NormalHours:      req.NormalHours,
		Overtime50Hours:  req.Overtime50Hours,
		Overtime100Hours: req.Overtime100Hours,
		HolidayHours:     req.HolidayHours,
		LateHours:        req.LateHours,
		Days:             req.Days,
		Source:           attendance.SourceImported,
	}
}

func toFactResponse(fact attendance.Fact) attendance.FactResponse {
	return attendance.FactResponse{
		ID:               fact.ID,
		GuardID:          fact.GuardID,
		Year:             fact.Year,
		Month:            fact.Month,
		DaysWorked:       fact.DaysWorked,
		DaysAbsent:       fact.DaysAbsent,
		MedicalDays:      fact.MedicalDays,
		VacationDays:     fact.VacationDays,
		UnpaidDays:       fact.UnpaidDays,
		TotalDaysMonth:   fact.TotalDaysMonth,
		ScheduledDays:    fact.ScheduledDays,
		SundaysWorked:    fact.SundaysWorked,
		SundaysScheduled: fact.SundaysScheduled,
		NormalHours:      fact.NormalHours,
		Overtime50Hours:  fact.Overtime50Hours,
		Overtime100Hours: fact.Overtime100Hours,
		HolidayHours:     fact.HolidayHours,
		LateHours:        fact.LateHours,
		Days:             fact.Days,
		Source:           string(fact.Source),
	}
}
