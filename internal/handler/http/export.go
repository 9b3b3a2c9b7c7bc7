package http

import (
	"net/http"

	"github.com/Cryptobal/opai-sub012/internal/domain/export"
	"github.com/Cryptobal/opai-sub012/internal/handler/http/response"
	exportservice "github.com/Cryptobal/opai-sub012/internal/service/export"
	"github.com/go-chi/chi/v5"
)

type ExportHandler interface {
	Download(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
}

type exportHandlerImpl struct {
	service *exportservice.Service
}

func NewExportHandler(service *exportservice.Service) ExportHandler {
	return &exportHandlerImpl{service: service}
}

func (h *exportHandlerImpl) Download(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	kind := export.Kind(chi.URLParam(r, "kind"))
	if runID == "" {
		response.BadRequest(w, "Run ID is required", nil)
		return
	}

	file, err := h.service.Export(r.Context(), runID, kind)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Name, "text/csv; charset=utf-8", file.Content, len(file.Report.Omissions))
}

func (h *exportHandlerImpl) Report(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	kind := export.Kind(chi.URLParam(r, "kind"))
	if runID == "" {
		response.BadRequest(w, "Run ID is required", nil)
		return
	}

	report, err := h.service.Report(r.Context(), runID, kind)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report)
}
