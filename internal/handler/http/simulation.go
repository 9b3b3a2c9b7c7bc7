package http

import (
	"encoding/json"
	"net/http"

	"github.com/Cryptobal/opai-sub012/internal/domain/payslip"
	"github.com/Cryptobal/opai-sub012/internal/handler/http/response"
	payslipservice "github.com/Cryptobal/opai-sub012/internal/service/payslip"
)

type SimulationHandler interface {
	Simulate(w http.ResponseWriter, r *http.Request)
	SimulateGuard(w http.ResponseWriter, r *http.Request)
}

type simulationHandlerImpl struct {
	service *payslipservice.Service
}

func NewSimulationHandler(service *payslipservice.Service) SimulationHandler {
	return &simulationHandlerImpl{service: service}
}

func (h *simulationHandlerImpl) Simulate(w http.ResponseWriter, r *http.Request) {
	var req payslip.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.SimulateAdHoc(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *simulationHandlerImpl) SimulateGuard(w http.ResponseWriter, r *http.Request) {
	var req payslip.SimulateGuardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.SimulateGuard(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
