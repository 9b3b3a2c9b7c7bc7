package http

import (
	"encoding/json"
	"net/http"

	"github.com/Cryptobal/opai-sub012/internal/domain/advance"
	"github.com/Cryptobal/opai-sub012/internal/handler/http/response"
	advanceservice "github.com/Cryptobal/opai-sub012/internal/service/advance"
	"github.com/go-chi/chi/v5"
)

type AdvanceHandler interface {
	CreateProcess(w http.ResponseWriter, r *http.Request)
	GetProcess(w http.ResponseWriter, r *http.Request)
	ListProcesses(w http.ResponseWriter, r *http.Request)
	PopulateItems(w http.ResponseWriter, r *http.Request)
	AddItem(w http.ResponseWriter, r *http.Request)
	RemoveItem(w http.ResponseWriter, r *http.Request)
	Transition(w http.ResponseWriter, r *http.Request)
}

type advanceHandlerImpl struct {
	service *advanceservice.Service
}

func NewAdvanceHandler(service *advanceservice.Service) AdvanceHandler {
	return &advanceHandlerImpl{service: service}
}

func (h *advanceHandlerImpl) CreateProcess(w http.ResponseWriter, r *http.Request) {
	var req advance.CreateProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.CreateProcess(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Advance process created", result)
}

func (h *advanceHandlerImpl) GetProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Process ID is required", nil)
		return
	}

	result, err := h.service.GetProcess(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *advanceHandlerImpl) ListProcesses(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListProcesses(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *advanceHandlerImpl) PopulateItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Process ID is required", nil)
		return
	}

	result, err := h.service.PopulateItems(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *advanceHandlerImpl) AddItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Process ID is required", nil)
		return
	}

	var req advance.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.AddItem(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Advance item added", result)
}

func (h *advanceHandlerImpl) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	if id == "" {
		response.BadRequest(w, "Item ID is required", nil)
		return
	}

	if err := h.service.RemoveItem(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, nil)
}

func (h *advanceHandlerImpl) Transition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Process ID is required", nil)
		return
	}

	var req advance.TransitionProcessRequest
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
