package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/spreadsheet"
)

type PayrollHandler interface {
	// Components
	CreateComponent(w http.ResponseWriter, r *http.Request)
	GetComponent(w http.ResponseWriter, r *http.Request)
	ListComponents(w http.ResponseWriter, r *http.Request)
	UpdateComponent(w http.ResponseWriter, r *http.Request)
	DeleteComponent(w http.ResponseWriter, r *http.Request)

	// Salary profiles
	GetSalaryProfile(w http.ResponseWriter, r *http.Request)
	UpsertSalaryProfile(w http.ResponseWriter, r *http.Request)

	// Runs
	GenerateRun(w http.ResponseWriter, r *http.Request)
	GetRun(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)
	SubmitRun(w http.ResponseWriter, r *http.Request)
	RejectRun(w http.ResponseWriter, r *http.Request)
	ApproveRun(w http.ResponseWriter, r *http.Request)
	MarkItemPaid(w http.ResponseWriter, r *http.Request)

	// Documents
	ExportRun(w http.ResponseWriter, r *http.Request)
	DownloadPayslip(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== COMPONENTS ==========

func (h *payrollHandlerImpl) CreateComponent(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req payroll.CreateSalaryComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateComponent(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary component created", result)
}

func (h *payrollHandlerImpl) GetComponent(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Component ID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetComponent(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListComponents(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("active_only") == "true"

	result, err := h.payrollService.ListComponents(r.Context(), a, activeOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Component ID")
	if !ok {
		return
	}

	var req payroll.UpdateSalaryComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.payrollService.UpdateComponent(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Component ID")
	if !ok {
		return
	}

	if err := h.payrollService.DeleteComponent(r.Context(), a, id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary component deleted successfully", nil)
}

// ========== SALARY PROFILES ==========

func (h *payrollHandlerImpl) GetSalaryProfile(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	employeeID, ok := uuidParam(w, r, "employeeID", "Employee ID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetSalaryProfile(r.Context(), a, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpsertSalaryProfile(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	employeeID, ok := uuidParam(w, r, "employeeID", "Employee ID")
	if !ok {
		return
	}

	var req payroll.UpsertSalaryProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.payrollService.UpsertSalaryProfile(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== RUNS ==========

func (h *payrollHandlerImpl) GenerateRun(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req payroll.GenerateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.GenerateRun(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll run generated", result)
}

func (h *payrollHandlerImpl) GetRun(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Run ID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetRun(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}

	filter := payroll.RunFilter{Page: 1, Limit: 20}
	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if monthStr := query.Get("period_month"); monthStr != "" {
		if month, err := strconv.Atoi(monthStr); err == nil {
			filter.PeriodMonth = &month
		}
	}
	if yearStr := query.Get("period_year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			filter.PeriodYear = &year
		}
	}
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	if branchID := query.Get("branch_id"); branchID != "" {
		filter.BranchID = &branchID
	}

	result, err := h.payrollService.ListRuns(r.Context(), a, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := 0
	if result.Limit > 0 {
		totalPages = int((result.TotalCount + int64(result.Limit) - 1) / int64(result.Limit))
	}
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

func (h *payrollHandlerImpl) SubmitRun(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.payrollService.SubmitRun, "Payroll run submitted for approval")
}

func (h *payrollHandlerImpl) RejectRun(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.payrollService.RejectRun, "Payroll run returned to draft")
}

func (h *payrollHandlerImpl) ApproveRun(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.payrollService.ApproveRun, "Payroll run approved")
}

func (h *payrollHandlerImpl) lifecycle(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, a actor.Actor, runID string) (payroll.RunResponse, error), message string) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Run ID")
	if !ok {
		return
	}

	result, err := apply(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, result)
}

func (h *payrollHandlerImpl) MarkItemPaid(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	runID, ok := uuidParam(w, r, "id", "Run ID")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID", "Item ID")
	if !ok {
		return
	}

	result, err := h.payrollService.MarkItemPaid(r.Context(), a, runID, itemID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Payroll item marked as paid"
	if result.Warning != nil {
		message = "Payroll item marked as paid, payslip was not delivered"
	}
	response.SuccessWithMessage(w, message, result)
}

// ========== DOCUMENTS ==========

func (h *payrollHandlerImpl) ExportRun(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "Run ID")
	if !ok {
		return
	}

	data, filename, err := h.payrollService.ExportRun(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, spreadsheet.ContentType, filename, data)
}

func (h *payrollHandlerImpl) DownloadPayslip(w http.ResponseWriter, r *http.Request) {
	a, ok := requestActor(w, r)
	if !ok {
		return
	}
	runID, ok := uuidParam(w, r, "id", "Run ID")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID", "Item ID")
	if !ok {
		return
	}

	data, filename, err := h.payrollService.DownloadPayslip(r.Context(), a, runID, itemID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, spreadsheet.ContentType, filename, data)
}
