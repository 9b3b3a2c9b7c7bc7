package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	"github.com/Cryptobal/opai-sub012/internal/handler/http/response"
	settlementservice "github.com/Cryptobal/opai-sub012/internal/service/settlement"
	"github.com/go-chi/chi/v5"
)

type SettlementHandler interface {
	// Runs
	OpenRun(w http.ResponseWriter, r *http.Request)
	ComputeRun(w http.ResponseWriter, r *http.Request)
	TransitionRun(w http.ResponseWriter, r *http.Request)
	GetRun(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)

	// Settlements
	ListByRun(w http.ResponseWriter, r *http.Request)
	ListByGuard(w http.ResponseWriter, r *http.Request)
	GetSettlement(w http.ResponseWriter, r *http.Request)
	Correct(w http.ResponseWriter, r *http.Request)
	Payslip(w http.ResponseWriter, r *http.Request)
}

type settlementHandlerImpl struct {
	service *settlementservice.Service
}

func NewSettlementHandler(service *settlementservice.Service) SettlementHandler {
	return &settlementHandlerImpl{service: service}
}

// ========== RUNS ==========

func (h *settlementHandlerImpl) OpenRun(w http.ResponseWriter, r *http.Request) {
	var req settlement.OpenRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.OpenRun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Settlement run opened", result)
}

func (h *settlementHandlerImpl) ComputeRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Run ID is required", nil)
		return
	}

	var req settlement.ComputeRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}

	result, err := h.service.ComputeRun(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settlementHandlerImpl) TransitionRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Run ID is required", nil)
		return
	}

	var req settlement.TransitionRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.Transition(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settlementHandlerImpl) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Run ID is required", nil)
		return
	}

	result, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settlementHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := settlement.RunFilter{Page: 1, Limit: 20}
	if raw := r.URL.Query().Get("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			filter.Year = &year
		}
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = &raw
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	result, err := h.service.ListRuns(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := int((result.TotalCount + int64(filter.Limit) - 1) / int64(filter.Limit))
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

// ========== SETTLEMENTS ==========

func (h *settlementHandlerImpl) ListByRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Run ID is required", nil)
		return
	}

	result, err := h.service.ListByRun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settlementHandlerImpl) ListByGuard(w http.ResponseWriter, r *http.Request) {
	guardID := chi.URLParam(r, "guardID")
	if guardID == "" {
		response.BadRequest(w, "Guard ID is required", nil)
		return
	}

	limit := 12
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := h.service.ListByGuard(r.Context(), guardID, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settlementHandlerImpl) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Settlement ID is required", nil)
		return
	}

	result, err := h.service.GetSettlement(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settlementHandlerImpl) Correct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Settlement ID is required", nil)
		return
	}

	result, err := h.service.Correct(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settlementHandlerImpl) Payslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Settlement ID is required", nil)
		return
	}

	content, err := h.service.RenderPayslip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, "payslip_"+id+".pdf", "application/pdf", content, 0)
}
