package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
)

type LoanHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Repay(w http.ResponseWriter, r *http.Request)
}

type loanHandlerImpl struct {
	loanService loan.LoanService
}

func NewLoanHandler(loanService loan.LoanService) LoanHandler {
	return &loanHandlerImpl{loanService: loanService}
}

func (h *loanHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req loan.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.loanService.Create(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Loan requested", result)
}

func (h *loanHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Loan ID")
	if !ok {
		return
	}

	result, err := h.loanService.Get(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *loanHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}

	var filter loan.LoanFilter
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	result, err := h.loanService.List(r.Context(), a, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *loanHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Loan ID")
	if !ok {
		return
	}

	result, err := h.loanService.Approve(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Loan approved", result)
}

func (h *loanHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Loan ID")
	if !ok {
		return
	}

	var req loan.RejectLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.loanService.Reject(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Loan rejected", result)
}

func (h *loanHandlerImpl) Repay(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Loan ID")
	if !ok {
		return
	}

	var req loan.RepayLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.loanService.Repay(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Loan repayment recorded", result)
}
