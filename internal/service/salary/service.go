package salary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
	"github.com/Cryptobal/opai-sub012/internal/repository/postgresql"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

// Service manages salary structures and the bonus catalog, and resolves the
// effective package for a guard at a period start.
type Service struct {
	db            *database.DB
	structureRepo salary.StructureRepository
	bonusRepo     salary.BonusRepository
}

func NewService(
	db *database.DB,
	structureRepo salary.StructureRepository,
	bonusRepo salary.BonusRepository,
) *Service {
	return &Service{
		db:            db,
		structureRepo: structureRepo,
		bonusRepo:     bonusRepo,
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

// ========== STRUCTURES ==========

func (s *Service) CreateStructure(ctx context.Context, req salary.CreateStructureRequest) (salary.StructureResponse, error) {
	if err := req.Validate(); err != nil {
		return salary.StructureResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	effectiveFrom, _ := validator.IsValidDate(req.EffectiveFrom)

	structure := salary.Structure{
		CompanyID:           companyID,
		GuardID:             req.GuardID,
		InstallationID:      req.InstallationID,
		BaseSalary:          req.BaseSalary,
		MealAllowance:       req.MealAllowance,
		TransportAllowance:  req.TransportAllowance,
		GratificationPolicy: salary.GratificationPolicy(req.GratificationPolicy),
		CustomGratification: req.CustomGratification,
		HealthScheme:        salary.HealthScheme(req.HealthScheme),
		IsaprePlanRate:      req.IsaprePlanRate,
		AFPCode:             req.AFPCode,
		ContractType:        legalparams.ContractType(req.ContractType),
		FamilyDependents:    req.FamilyDependents,
		AdvanceMax:          req.AdvanceMax,
		EffectiveFrom:       effectiveFrom,
	}
	if req.MonthlyHours != nil {
		structure.MonthlyHours = *req.MonthlyHours
	}
	if req.EndDate != nil {
		endDate, _ := validator.IsValidDate(*req.EndDate)
		structure.EndDate = &endDate
	}

	// Creating a new guard-level structure closes the previous open one the
	// day before, keeping at most one structure active per date.
	var created salary.Structure
	err = postgresql.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if req.GuardID != nil {
			current, err := s.structureRepo.GetEffectiveForGuard(txCtx, companyID, *req.GuardID, effectiveFrom)
			if err != nil && !errors.Is(err, salary.ErrStructureNotFound) {
				return err
			}
			if err == nil && current.EndDate == nil {
				endDate := effectiveFrom.AddDate(0, 0, -1)
				if endDate.Before(current.EffectiveFrom) {
					return salary.ErrStructureOverlap
				}
				if err := s.structureRepo.Close(txCtx, current.ID, companyID, endDate); err != nil {
					return err
				}
			}
		}

		var err error
		created, err = s.structureRepo.Create(txCtx, structure)
		return err
	})
	if err != nil {
		return salary.StructureResponse{}, err
	}

	return toStructureResponse(created), nil
}

func (s *Service) GetStructure(ctx context.Context, id string) (salary.StructureResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	structure, err := s.structureRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return salary.StructureResponse{}, err
	}
	return toStructureResponse(structure), nil
}

func (s *Service) ListStructures(ctx context.Context, guardID string) ([]salary.StructureResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	structures, err := s.structureRepo.ListByGuard(ctx, companyID, guardID)
	if err != nil {
		return nil, err
	}

	responses := make([]salary.StructureResponse, 0, len(structures))
	for _, structure := range structures {
		responses = append(responses, toStructureResponse(structure))
	}
	return responses, nil
}

// ResolveEffective returns the salary package in force for the guard at the
/// period start: the guard-level structure wins; the installation default is
// the fallback. No structure at all is ErrNoSalaryStructure.
func (s *Service) ResolveEffective(ctx context.Context, companyID, guardID string, asOf time.Time) (salary.Resolved, error) {
	structure, err := s.structureRepo.GetEffectiveForGuard(ctx, companyID, guardID, asOf)
	if errors.Is(err, salary.ErrStructureNotFound) {
		structure, err = s.structureRepo.GetInstallationDefault(ctx, companyID, guardID, asOf)
		if errors.Is(err, salary.ErrStructureNotFound) {
			return salary.Resolved{}, salary.ErrNoSalaryStructure
		}
	}
	if err != nil {
		return salary.Resolved{}, err
	}

	bonuses, err := s.bonusRepo.ListActiveAssignments(ctx, companyID, guardID, asOf)
	if err != nil {
		return salary.Resolved{}, err
	}

	return salary.Resolved{Structure: structure, Bonuses: bonuses}, nil
}

// ========== BONUS CATALOG ==========

func (s *Service) CreateBonus(ctx context.Context, req salary.CreateBonusDefinitionRequest) (salary.BonusDefinitionResponse, error) {
	if err := req.Validate(); err != nil {
		return salary.BonusDefinitionResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.BonusDefinitionResponse{}, err
	}

	taxable := true
	if req.Taxable != nil {
		taxable = *req.Taxable
	}
	tributable := true
	if req.Tributable != nil {
		tributable = *req.Tributable
	}

	def := salary.BonusDefinition{
		CompanyID:   companyID,
		Name:        req.Name,
		Kind:        salary.BonusKind(req.Kind),
		Amount:      req.Amount,
		Percent:     req.Percent,
		Taxable:     taxable,
		Tributable:  tributable,
		MinDays:     req.MinDays,
		IsActive:    true,
		Description: req.Description,
	}

	created, err := s.bonusRepo.CreateDefinition(ctx, def)
	if err != nil {
		return salary.BonusDefinitionResponse{}, err
	}
	return toBonusResponse(created), nil
}

func (s *Service) ListBonuses(ctx context.Context, activeOnly bool) ([]salary.BonusDefinitionResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	defs, err := s.bonusRepo.ListDefinitions(ctx, companyID, activeOnly)
	if err != nil {
		return nil, err
	}

	responses := make([]salary.BonusDefinitionResponse, 0, len(defs))
	for _, def := range defs {
		responses = append(responses, toBonusResponse(def))
	}
	return responses, nil
}

func (s *Service) UpdateBonus(ctx context.Context, req salary.UpdateBonusDefinitionRequest) (salary.BonusDefinitionResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return salary.BonusDefinitionResponse{}, err
	}

	if err := s.bonusRepo.UpdateDefinition(ctx, companyID, req); err != nil {
		return salary.BonusDefinitionResponse{}, err
	}

	def, err := s.bonusRepo.GetDefinitionByID(ctx, req.ID, companyID)
	if err != nil {
		return salary.BonusDefinitionResponse{}, err
	}
	return toBonusResponse(def), nil
}

func (s *Service) AssignBonus(ctx context.Context, req salary.AssignBonusRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := s.bonusRepo.GetDefinitionByID(ctx, req.BonusID, companyID); err != nil {
		return err
	}

	assignment := salary.BonusAssignment{
		GuardID:         req.GuardID,
		BonusID:         req.BonusID,
		OverrideAmount:  req.OverrideAmount,
		OverridePercent: req.OverridePercent,
		EffectiveFrom:   time.Now(),
	}
	if req.EffectiveFrom != nil {
		effectiveFrom, ok := validator.IsValidDate(*req.EffectiveFrom)
		if !ok {
			return validator.ValidationErrors{{Field: "effective_from", Message: "must be a valid date (YYYY-MM-DD)"}}
		}
		assignment.EffectiveFrom = effectiveFrom
	}
	if req.EndDate != nil {
		endDate, ok := validator.IsValidDate(*req.EndDate)
		if !ok {
			return validator.ValidationErrors{{Field: "end_date", Message: "must be a valid date (YYYY-MM-DD)"}}
		}
		assignment.EndDate = &endDate
	}

	_, err = s.bonusRepo.Assign(ctx, assignment, companyID)
	return err
}

func (s *Service) RemoveAssignment(ctx context.Context, id string) error {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	return s.bonusRepo.RemoveAssignment(ctx, id, companyID)
}

func toStructureResponse(structure salary.Structure) salary.StructureResponse {
	resp := salary.StructureResponse{
		ID:                  structure.ID,
		GuardID:             structure.GuardID,
		InstallationID:      structure.InstallationID,
		BaseSalary:          structure.BaseSalary,
		MealAllowance:       structure.MealAllowance,
		TransportAllowance:  structure.TransportAllowance,
		GratificationPolicy: string(structure.GratificationPolicy),
		CustomGratification: structure.CustomGratification,
		HealthScheme:        string(structure.HealthScheme),
		IsaprePlanRate:      structure.IsaprePlanRate,
		AFPCode:             structure.AFPCode,
		ContractType:        string(structure.ContractType),
		MonthlyHours:        structure.MonthlyHours,
		FamilyDependents:    structure.FamilyDependents,
		AdvanceMax:          structure.AdvanceMax,
		EffectiveFrom:       structure.EffectiveFrom.Format("2006-01-02"),
	}
	if !resp.MonthlyHours.IsPositive() {
		resp.MonthlyHours = decimal.NewFromInt(180)
	}
	if structure.EndDate != nil {
		endDate := structure.EndDate.Format("2006-01-02")
		resp.EndDate = &endDate
	}
	return resp
}

func toBonusResponse(def salary.BonusDefinition) salary.BonusDefinitionResponse {
	return salary.BonusDefinitionResponse{
		ID:          def.ID,
		Name:        def.Name,
		Kind:        string(def.Kind),
		Amount:      def.Amount,
		Percent:     def.Percent,
		Taxable:     def.Taxable,
		Tributable:  def.Tributable,
		MinDays:     def.MinDays,
		IsActive:    def.IsActive,
		Description: def.Description,
	}
}
