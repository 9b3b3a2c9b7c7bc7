package http

import (
	"encoding/json"
	"net/http"

	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/Cryptobal/opai-sub012/internal/handler/http/response"
	salaryservice "github.com/Cryptobal/opai-sub012/internal/service/salary"
	"github.com/go-chi/chi/v5"
)

type SalaryHandler interface {
	// Structures
	CreateStructure(w http.ResponseWriter, r *http.Request)
	GetStructure(w http.ResponseWriter, r *http.Request)
	ListStructures(w http.ResponseWriter, r *http.Request)

	// Bonus catalog
	CreateBonus(w http.ResponseWriter, r *http.Request)
	ListBonuses(w http.ResponseWriter, r *http.Request)
	UpdateBonus(w http.ResponseWriter, r *http.Request)
	AssignBonus(w http.ResponseWriter, r *http.Request)
	RemoveAssignment(w http.ResponseWriter, r *http.Request)
}

type salaryHandlerImpl struct {
	service *salaryservice.Service
}

func NewSalaryHandler(service *salaryservice.Service) SalaryHandler {
	return &salaryHandlerImpl{service: service}
}

// ========== STRUCTURES ==========

func (h *salaryHandlerImpl) CreateStructure(w http.ResponseWriter, r *http.Request) {
	var req salary.CreateStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.CreateStructure(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary structure created", result)
}

func (h *salaryHandlerImpl) GetStructure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Structure ID is required", nil)
		return
	}

	result, err := h.service.GetStructure(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *salaryHandlerImpl) ListStructures(w http.ResponseWriter, r *http.Request) {
	guardID := r.URL.Query().Get("guard_id")
	if guardID == "" {
		response.BadRequest(w, "guard_id query parameter is required", nil)
		return
	}

	result, err := h.service.ListStructures(r.Context(), guardID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== BONUS CATALOG ==========

func (h *salaryHandlerImpl) CreateBonus(w http.ResponseWriter, r *http.Request) {
	var req salary.CreateBonusDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.CreateBonus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Bonus definition created", result)
}

func (h *salaryHandlerImpl) ListBonuses(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") == "true"

	result, err := h.service.ListBonuses(r.Context(), activeOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *salaryHandlerImpl) UpdateBonus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Bonus ID is required", nil)
		return
	}

	var req salary.UpdateBonusDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.service.UpdateBonus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *salaryHandlerImpl) AssignBonus(w http.ResponseWriter, r *http.Request) {
	guardID := chi.URLParam(r, "guardID")
	if guardID == "" {
		response.BadRequest(w, "Guard ID is required", nil)
		return
	}

	var req salary.AssignBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.GuardID = guardID

	if err := h.service.AssignBonus(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Bonus assigned", nil)
}

func (h *salaryHandlerImpl) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Assignment ID is required", nil)
		return
	}

	if err := h.service.RemoveAssignment(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, nil)
}
