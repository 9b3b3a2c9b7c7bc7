package payslip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/Cryptobal/opai-sub012/internal/pkg/validator"
	salaryservice "github.com/Cryptobal/opai-sub012/internal/service/salary"
	"github.com/go-chi/jwtauth/v5"
)

// Service exposes the pure calculator behind storage-backed entry points:
// ad-hoc what-if simulations and simulations of a concrete guard's stored
// configuration.
type Service struct {
	snapRepo      legalparams.SnapshotRepository
	factRepo      attendance.FactRepository
	salaryService *salaryservice.Service
}

func NewService(
	snapRepo legalparams.SnapshotRepository,
	factRepo attendance.FactRepository,
	salaryService *salaryservice.Service,
) *Service {
	return &Service{
		snapRepo:      snapRepo,
		factRepo:      factRepo,
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

// SimulateAdHoc runs the calculator on caller-supplied values. Nothing is
// persisted.
func (s *Service) SimulateAdHoc(ctx context.Context, req payslip.SimulateRequest) (payslip.SimulateResponse, error) {
	if err := req.Validate(); err != nil {
		return payslip.SimulateResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payslip.SimulateResponse{}, err
	}

	asOf := time.Now()
	if req.AsOf != "" {
		asOf, _ = validator.IsValidDate(req.AsOf)
	}

	snap, err := s.snapRepo.ResolveAsOf(ctx, companyID, asOf)
	if err != nil {
		return payslip.SimulateResponse{}, err
	}

	in := inputFromRequest(req)
	breakdown, err := Simulate(in, snap)
	if err != nil {
		return payslip.SimulateResponse{}, err
	}

	return payslip.SimulateResponse{SnapshotID: snap.ID, Breakdown: breakdown}, nil
}

// SimulateGuard computes a guard's breakdown for a period from stored
// configuration, without writing a settlement.
func (s *Service) SimulateGuard(ctx context.Context, req payslip.SimulateGuardRequest) (payslip.SimulateResponse, error) {
	if err := req.Validate(); err != nil {
		return payslip.SimulateResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payslip.SimulateResponse{}, err
	}

	periodStart := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)

	snap, err := s.snapRepo.ResolveAsOf(ctx, companyID, periodStart)
	if err != nil {
		return payslip.SimulateResponse{}, err
	}

	in, err := s.BuildInput(ctx, companyID, req.GuardID, req.Year, req.Month)
	if err != nil {
		return payslip.SimulateResponse{}, err
	}
	in.WithEmployerProvisions = req.WithEmployerProvisions

	breakdown, err := Simulate(in, snap)
	if err != nil {
		return payslip.SimulateResponse{}, err
	}

	return payslip.SimulateResponse{SnapshotID: snap.ID, Breakdown: breakdown}, nil
}

// BuildInput assembles the calculator input for one guard and period from the
// stored salary structure, active bonus assignments and attendance fact. Used
// by both on-demand simulation and the settlement batch.
func (s *Service) BuildInput(ctx context.Context, companyID, guardID string, year, month int) (payslip.Input, error) {
	periodStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	resolved, err := s.salaryService.ResolveEffective(ctx, companyID, guardID, periodStart)
	if err != nil {
		return payslip.Input{}, err
	}

	fact, err := s.factRepo.GetFact(ctx, companyID, guardID, year, month)
	if err != nil {
		if errors.Is(err, attendance.ErrNoAttendanceData) {
			return payslip.Input{}, attendance.ErrNoAttendanceData
		}
		return payslip.Input{}, err
	}

	st := resolved.Structure
	bonuses := salaryservice.EvaluateBonuses(resolved.Bonuses, st.BaseSalary, fact)

	return payslip.Input{
		BaseSalary:          st.BaseSalary,
		MealAllowance:       st.MealAllowance,
		TransportAllowance:  st.TransportAllowance,
		GratificationPolicy: st.GratificationPolicy,
		CustomGratification: st.CustomGratification,
		HealthScheme:        st.HealthScheme,
		IsaprePlanRate:      st.IsaprePlanRate,
		AFPCode:             st.AFPCode,
		ContractType:        st.ContractType,
		MonthlyHours:        st.MonthlyHours,
		FamilyDependents:    st.FamilyDependents,
		Bonuses:             bonuses,
		Fact:                fact,
	}, nil
}

func inputFromRequest(req payslip.SimulateRequest) payslip.Input {
	fact := attendance.Fact{
		DaysWorked:       req.Attendance.DaysWorked,
		DaysAbsent:       req.Attendance.DaysAbsent,
		MedicalDays:      req.Attendance.MedicalDays,
		VacationDays:     req.Attendance.VacationDays,
		UnpaidDays:       req.Attendance.UnpaidDays,
		TotalDaysMonth:   req.Attendance.TotalDaysMonth,
		Overtime50Hours:  req.Attendance.Overtime50Hours,
		Overtime100Hours: req.Attendance.Overtime100Hours,
		HolidayHours:     req.Attendance.HolidayHours,
		LateHours:        req.Attendance.LateHours,
		Source:           attendance.SourceResolved,
	}
	// Zero attendance means a fully worked 30-day month.
	if fact.TotalDaysMonth == 0 {
		fact.TotalDaysMonth = 30
		if fact.DaysWorked == 0 {
			fact.DaysWorked = 30
		}
	}

	in := payslip.Input{
		BaseSalary:             req.BaseSalary,
		MealAllowance:          req.MealAllowance,
		TransportAllowance:     req.TransportAllowance,
		GratificationPolicy:    salary.GratificationPolicy(req.GratificationPolicy),
		CustomGratification:    req.CustomGratification,
		HealthScheme:           salary.HealthScheme(req.HealthScheme),
		IsaprePlanRate:         req.IsaprePlanRate,
		AFPCode:                req.AFPCode,
		ContractType:           legalparams.ContractType(req.ContractType),
		FamilyDependents:       req.FamilyDependents,
		Bonuses:                req.Bonuses,
		Commissions:            req.Commissions,
		OtherTaxable:           req.OtherTaxable,
		OtherNonTaxable:        req.OtherNonTaxable,
		ExtraDeductions:        req.ExtraDeductions,
		Fact:                   fact,
		WithEmployerProvisions: req.WithEmployerProvisions,
	}
	if req.MonthlyHours != nil {
		in.MonthlyHours = *req.MonthlyHours
	}
	return in
}
