package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/handler/http/response"
	attendanceservice "github.com/Cryptobal/opai-sub012/internal/service/attendance"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	Import(w http.ResponseWriter, r *http.Request)
	ImportBatch(w http.ResponseWriter, r *http.Request)
	GetFact(w http.ResponseWriter, r *http.Request)
	ListByPeriod(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	service *attendanceservice.Service
}

func NewAttendanceHandler(service *attendanceservice.Service) AttendanceHandler {
	return &attendanceHandlerImpl{service: service}
}

func (h *attendanceHandlerImpl) Import(w http.ResponseWriter, r *http.Request) {
	var req attendance.ImportFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.Import(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) ImportBatch(w http.ResponseWriter, r *http.Request) {
	var req attendance.ImportFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.ImportBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) GetFact(w http.ResponseWriter, r *http.Request) {
	guardID := chi.URLParam(r, "guardID")
	year, month, ok := periodParams(r)
	if guardID == "" || !ok {
		response.BadRequest(w, "Guard ID, year and month are required", nil)
		return
	}

	result, err := h.service.GetFact(r.Context(), guardID, year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) ListByPeriod(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodParams(r)
	if !ok {
		response.BadRequest(w, "year and month query parameters are required", nil)
		return
	}

	result, err := h.service.ListByPeriod(r.Context(), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func periodParams(r *http.Request) (year, month int, ok bool) {
	year, errY := strconv.Atoi(r.URL.Query().Get("year"))
	month, errM := strconv.Atoi(r.URL.Query().Get("month"))
	if errY != nil || errM != nil {
		return 0, 0, false
	}
	return year, month, true
}
