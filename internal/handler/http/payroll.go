package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Runs
	GenerateRun(w http.ResponseWriter, r *http.Request)
	GetRunSummary(w http.ResponseWriter, r *http.Request)
	CloseRun(w http.ResponseWriter, r *http.Request)
	BankExport(w http.ResponseWriter, r *http.Request)
	BankExportCSV(w http.ResponseWriter, r *http.Request)

	// Receipts
	ListReceipts(w http.ResponseWriter, r *http.Request)
	CreateReceipt(w http.ResponseWriter, r *http.Request)
	GetReceipt(w http.ResponseWriter, r *http.Request)
	DeliverReceipt(w http.ResponseWriter, r *http.Request)
	RegenerateReceipt(w http.ResponseWriter, r *http.Request)
	MarkReceiptDownloaded(w http.ResponseWriter, r *http.Request)

	// Advances & aguinaldo
	RecordAdvance(w http.ResponseWriter, r *http.Request)
	GetAguinaldo(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	salaryService    payroll.SalaryService
	runService       payroll.RunService
	aguinaldoService payroll.AguinaldoService
	now              func() time.Time
}

func NewPayrollHandler(
	salaryService payroll.SalaryService,
	runService payroll.RunService,
	aguinaldoService payroll.AguinaldoService,
) PayrollHandler {
	return &payrollHandlerImpl{
		salaryService:    salaryService,
		runService:       runService,
		aguinaldoService: aguinaldoService,
		now:              time.Now,
	}
}

func periodParam(w http.ResponseWriter, r *http.Request) (payroll.Period, bool) {
	period, err := payroll.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		response.BadRequest(w, "Invalid period, expected YYYY-MM", nil)
		return payroll.Period{}, false
	}
	return period, true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, name+" ID is required", nil)
		return "", false
	}
	return id, true
}

// optionalInt reads an integer query parameter, recording a validation error
// when it is present but malformed.
func optionalInt(r *http.Request, key string, errs *validator.ValidationErrors) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = errs.Add(key, "must be an integer")
		return nil
	}
	return &v
}

func optionalString(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

// ========== RUNS ==========

func (h *payrollHandlerImpl) GenerateRun(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	result, err := h.salaryService.GenerateMonthlyRun(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, fmt.Sprintf("Payroll run %s generated", period), result)
}

func (h *payrollHandlerImpl) GetRunSummary(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	result, err := h.runService.Summary(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) CloseRun(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	result, err := h.runService.Close(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, fmt.Sprintf("Payroll run %s closed", period), result)
}

func (h *payrollHandlerImpl) BankExport(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	lines, err := h.runService.BankExport(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, lines, len(lines))
}

func (h *payrollHandlerImpl) BankExportCSV(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	// Buffer the file so a rejected export still gets a JSON error.
	var buf bytes.Buffer
	if err := h.runService.WriteBankExportCSV(r.Context(), period, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, "text/csv", fmt.Sprintf("bank-transfer-%s.csv", period))
	_, _ = w.Write(buf.Bytes())
}

// ========== RECEIPTS ==========

func (h *payrollHandlerImpl) ListReceipts(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	filter := payroll.ReceiptFilter{
		EmployeeID: optionalString(r, "employee_id"),
		BranchID:   optionalString(r, "branch_id"),
		Year:       optionalInt(r, "year", &errs),
		Month:      optionalInt(r, "month", &errs),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := payroll.ParseReceiptStatus(raw)
		if err != nil {
			errs = errs.Add("status", "must be one of generated, sent, downloaded")
		} else {
			filter.Status = &status
		}
	}
	if err := errs.OrNil(); err != nil {
		response.HandleError(w, err)
		return
	}

	receipts, err := h.salaryService.ListReceipts(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, receipts, len(receipts))
}

func (h *payrollHandlerImpl) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	receipt, err := h.salaryService.CreateReceipt(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary receipt created", receipt)
}

func (h *payrollHandlerImpl) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Receipt")
	if !ok {
		return
	}

	receipt, err := h.salaryService.GetReceipt(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if err := middleware.AllowSelfOrManager(r, receipt.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, receipt)
}

func (h *payrollHandlerImpl) DeliverReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Receipt")
	if !ok {
		return
	}

	receipt, err := h.salaryService.Deliver(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary receipt sent", receipt)
}

func (h *payrollHandlerImpl) RegenerateReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Receipt")
	if !ok {
		return
	}

	receipt, err := h.salaryService.RegenerateReceipt(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary receipt regenerated", receipt)
}

func (h *payrollHandlerImpl) MarkReceiptDownloaded(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "Receipt")
	if !ok {
		return
	}

	receipt, err := h.salaryService.GetReceipt(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if err := middleware.AllowSelfOrManager(r, receipt.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	receipt, err = h.salaryService.MarkDownloaded(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, receipt)
}

// ========== ADVANCES ==========

func (h *payrollHandlerImpl) RecordAdvance(w http.ResponseWriter, r *http.Request) {
	var req payroll.RecordAdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	advance, err := h.salaryService.RecordAdvance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary advance recorded", advance)
}

// ========== AGUINALDO ==========

func (h *payrollHandlerImpl) GetAguinaldo(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := idParam(w, r, "Employee")
	if !ok {
		return
	}
	if err := middleware.AllowSelfOrManager(r, employeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	year := h.now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.ValidationError(w, map[string]string{"year": "must be an integer"})
			return
		}
		year = parsed
	}

	projection, err := h.aguinaldoService.Project(r.Context(), employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, projection)
}
