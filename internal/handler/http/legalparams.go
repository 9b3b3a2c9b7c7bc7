package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/handler/http/response"
	legalparamsservice "github.com/Cryptobal/opai-sub012/internal/service/legalparams"
	"github.com/go-chi/chi/v5"
)

type LegalParamsHandler interface {
	Import(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type legalParamsHandlerImpl struct {
	service *legalparamsservice.Service
}

func NewLegalParamsHandler(service *legalparamsservice.Service) LegalParamsHandler {
	return &legalParamsHandlerImpl{service: service}
}

func (h *legalParamsHandlerImpl) Import(w http.ResponseWriter, r *http.Request) {
	var req legalparams.ImportSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.Import(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Legal parameter snapshot imported", result)
}

func (h *legalParamsHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Snapshot ID is required", nil)
		return
	}

	result, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *legalParamsHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "as_of must be a valid date (YYYY-MM-DD)", nil)
			return
		}
		asOf = parsed
	}

	result, err := h.service.Resolve(r.Context(), asOf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *legalParamsHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
