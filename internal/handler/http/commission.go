package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type CommissionHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	GenerateRun(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Finalize(w http.ResponseWriter, r *http.Request)
	Deliver(w http.ResponseWriter, r *http.Request)
}

type commissionHandlerImpl struct {
	commissionService payroll.CommissionService
}

func NewCommissionHandler(commissionService payroll.CommissionService) CommissionHandler {
	return &commissionHandlerImpl{commissionService: commissionService}
}

func (h *commissionHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	receipt, err := h.commissionService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Commission draft created", receipt)
}

func (h *commissionHandlerImpl) GenerateRun(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateCommissionRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.commissionService.GenerateRun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Commission run generated", result)
}

func (h *commissionHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	filter := payroll.CommissionFilter{
		EmployeeID: optionalString(r, "employee_id"),
		BranchID:   optionalString(r, "branch_id"),
		Year:       optionalInt(r, "year", &errs),
		Month:      optionalInt(r, "month", &errs),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := payroll.ParseCommissionStatus(raw)
		if err != nil {
			errs = errs.Add("status", "must be one of draft, generated, sent")
		} else {
			filter.Status = &status
		}
	}
	if err := errs.OrNil(); err != nil {
		response.HandleError(w, err)
		return
	}

	receipts, err := h.commissionService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, receipts, len(receipts))
}

func (h *commissionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Commission")
	if !ok {
		return
	}

	receipt, err := h.commissionService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, receipt)
}

func (h *commissionHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Commission")
	if !ok {
		return
	}

	receipt, err := h.commissionService.Finalize(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Commission receipt generated", receipt)
}

func (h *commissionHandlerImpl) Deliver(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Commission")
	if !ok {
		return
	}

	receipt, err := h.commissionService.Deliver(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Commission receipt sent", receipt)
}
