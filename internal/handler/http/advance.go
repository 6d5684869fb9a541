package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
)

type AdvanceHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type advanceHandlerImpl struct {
	advanceService advance.AdvanceService
}

func NewAdvanceHandler(advanceService advance.AdvanceService) AdvanceHandler {
	return &advanceHandlerImpl{advanceService: advanceService}
}

func (h *advanceHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req advance.CreateAdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.advanceService.Create(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary advance requested", result)
}

func (h *advanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Advance ID")
	if !ok {
		return
	}

	result, err := h.advanceService.Get(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *advanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}

	var filter advance.AdvanceFilter
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	result, err := h.advanceService.List(r.Context(), a, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *advanceHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Advance ID")
	if !ok {
		return
	}

	result, err := h.advanceService.Approve(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary advance approved", result)
}

func (h *advanceHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Advance ID")
	if !ok {
		return
	}

	var req advance.RejectAdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.advanceService.Reject(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary advance rejected", result)
}
