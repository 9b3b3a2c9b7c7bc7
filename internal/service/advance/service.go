package advance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/advance"
	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/Cryptobal/opai-sub012/internal/repository/postgresql"
	salaryservice "github.com/Cryptobal/opai-sub012/internal/service/salary"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

// Service manages advance (anticipo) processes: one per period, items capped
// by each guard's configured maximum, paid as a lighter mid-month batch that
// the settlement run later deducts and finalizes.
type Service struct {
	db            *database.DB
	advanceRepo   advance.Repository
	guardRepo     guard.ProfileRepository
	salaryService *salaryservice.Service
}

func NewService(
	db *database.DB,
	advanceRepo advance.Repository,
	guardRepo guard.ProfileRepository,
	salaryService *salaryservice.Service,
) *Service {
	return &Service{
		db:            db,
		advanceRepo:   advanceRepo,
		guardRepo:     guardRepo,
		salaryService: salaryService,
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

func (s *Service) CreateProcess(ctx context.Context, req advance.CreateProcessRequest) (advance.ProcessResponse, error) {
	if err := req.Validate(); err != nil {
		return advance.ProcessResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return advance.ProcessResponse{}, err
	}

	process, err := s.advanceRepo.CreateProcess(ctx, advance.Process{
		CompanyID: companyID,
		Year:      req.Year,
		Month:     req.Month,
		Status:    advance.StatusDraft,
	})
	if err != nil {
		return advance.ProcessResponse{}, err
	}
	return toProcessResponse(process, nil), nil
}

// PopulateItems fills a draft process with one item per active guard whose
// salary structure configures a positive advance amount. Guards that already
// have an item are left untouched.
func (s *Service) PopulateItems(ctx context.Context, processID string) (advance.ProcessResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return advance.ProcessResponse{}, err
	}

	process, err := s.advanceRepo.GetProcessByID(ctx, processID, companyID)
	if err != nil {
		return advance.ProcessResponse{}, err
	}
	if process.Status != advance.StatusDraft {
		return advance.ProcessResponse{}, advance.ErrProcessNotDraft
	}

	guards, err := s.guardRepo.ListActive(ctx, companyID)
	if err != nil {
		return advance.ProcessResponse{}, err
	}

	periodStart := time.Date(process.Year, time.Month(process.Month), 1, 0, 0, 0, 0, time.UTC)
	for _, profile := range guards {
		resolved, err := s.salaryService.ResolveEffective(ctx, companyID, profile.GuardID, periodStart)
		if errors.Is(err, salary.ErrNoSalaryStructure) {
			continue
		}
		if err != nil {
			return advance.ProcessResponse{}, err
		}
		if !resolved.Structure.AdvanceMax.IsPositive() {
			continue
		}

		_, err = s.advanceRepo.CreateItem(ctx, advance.Item{
			ProcessID: process.ID,
			GuardID:   profile.GuardID,
			Amount:    resolved.Structure.AdvanceMax,
		}, companyID)
		if err != nil && !errors.Is(err, advance.ErrDuplicateItem) {
			return advance.ProcessResponse{}, err
		}
	}

	return s.GetProcess(ctx, processID)
}

// AddItem adds a single guard's advance, capped by the structure's maximum.
func (s *Service) AddItem(ctx context.Context, processID string, req advance.AddItemRequest) (advance.ItemResponse, error) {
	if err := req.Validate(); err != nil {
		return advance.ItemResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return advance.ItemResponse{}, err
	}

	process, err := s.advanceRepo.GetProcessByID(ctx, processID, companyID)
	if err != nil {
		return advance.ItemResponse{}, err
	}
	if process.Status != advance.StatusDraft {
		return advance.ItemResponse{}, advance.ErrProcessNotDraft
	}

	periodStart := time.Date(process.Year, time.Month(process.Month), 1, 0, 0, 0, 0, time.UTC)
	resolved, err := s.salaryService.ResolveEffective(ctx, companyID, req.GuardID, periodStart)
	if err != nil {
		return advance.ItemResponse{}, err
	}
	if req.Amount.GreaterThan(resolved.Structure.AdvanceMax) {
		return advance.ItemResponse{}, advance.ErrAmountExceedsMax
	}

	item, err := s.advanceRepo.CreateItem(ctx, advance.Item{
		ProcessID: process.ID,
		GuardID:   req.GuardID,
		Amount:    req.Amount,
	}, companyID)
	if err != nil {
		return advance.ItemResponse{}, err
	}
	return toItemResponse(item), nil
}

func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	return s.advanceRepo.RemoveItem(ctx, itemID, companyID)
}

// Transition moves a process forward: draft → approved → paid. Items become
// paid only with the parent process.
func (s *Service) Transition(ctx context.Context, processID string, req advance.TransitionProcessRequest) (advance.ProcessResponse, error) {
	if err := req.Validate(); err != nil {
		return advance.ProcessResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return advance.ProcessResponse{}, err
	}

	process, err := s.advanceRepo.GetProcessByID(ctx, processID, companyID)
	if err != nil {
		return advance.ProcessResponse{}, err
	}

	next := advance.Status(req.Status)
	if !process.CanTransitionTo(next) {
		return advance.ProcessResponse{}, advance.ErrInvalidTransition
	}

	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if next == advance.StatusPaid {
			if _, err := s.advanceRepo.MarkItemsPaid(txCtx, process.ID, companyID); err != nil {
				return err
			}
		}
		return s.advanceRepo.UpdateProcessStatus(txCtx, process.ID, companyID, next)
	})
	if err != nil {
		return advance.ProcessResponse{}, err
	}

	return s.GetProcess(ctx, processID)
}

func (s *Service) GetProcess(ctx context.Context, processID string) (advance.ProcessResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return advance.ProcessResponse{}, err
	}

	process, err := s.advanceRepo.GetProcessByID(ctx, processID, companyID)
	if err != nil {
		return advance.ProcessResponse{}, err
	}

	items, err := s.advanceRepo.ListItems(ctx, process.ID, companyID)
	if err != nil {
		return advance.ProcessResponse{}, err
	}
	return toProcessResponse(process, items), nil
}

func (s *Service) ListProcesses(ctx context.Context) ([]advance.ProcessResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	processes, err := s.advanceRepo.ListProcesses(ctx, companyID)
	if err != nil {
		return nil, err
	}

	responses := make([]advance.ProcessResponse, 0, len(processes))
	for _, process := range processes {
		responses = append(responses, toProcessResponse(process, nil))
	}
	return responses, nil
}

func toProcessResponse(process advance.Process, items []advance.Item) advance.ProcessResponse {
	resp := advance.ProcessResponse{
		ID:        process.ID,
		Year:      process.Year,
		Month:     process.Month,
		Status:    string(process.Status),
		TotalPaid: decimal.Zero,
	}
	if process.PaidAt != nil {
		paidAt := process.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
		resp.TotalPaid = resp.TotalPaid.Add(item.Amount)
	}
	return resp
}

func toItemResponse(item advance.Item) advance.ItemResponse {
	resp := advance.ItemResponse{
		ID:      item.ID,
		GuardID: item.GuardID,
		Amount:  item.Amount,
		Status:  string(item.Status),
	}
	if item.GuardName != nil {
		resp.GuardName = *item.GuardName
	}
	if item.GuardLegalID != nil {
		resp.GuardLegalID = *item.GuardLegalID
	}
	return resp
}
