package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

type SalaryServiceImpl struct {
	receiptRepo payroll.SalaryReceiptRepository
	advanceRepo payroll.AdvanceRepository
	runRepo     payroll.PayrollRunRepository
	locker      payroll.PeriodLocker
	directory   employee.Directory
	attendance  attendance.SummaryProvider
	notifier    notification.ReceiptNotifier
	calculator  *DeductionCalculator
	workers     int
	now         func() time.Time
}

func NewSalaryService(
	receiptRepo payroll.SalaryReceiptRepository,
	advanceRepo payroll.AdvanceRepository,
	runRepo payroll.PayrollRunRepository,
	locker payroll.PeriodLocker,
	directory employee.Directory,
	attendanceProvider attendance.SummaryProvider,
	notifier notification.ReceiptNotifier,
	calculator *DeductionCalculator,
	workers int,
) payroll.SalaryService {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &SalaryServiceImpl{
		receiptRepo: receiptRepo,
		advanceRepo: advanceRepo,
		runRepo:     runRepo,
		locker:      locker,
		directory:   directory,
		attendance:  attendanceProvider,
		notifier:    notifier,
		calculator:  calculator,
		workers:     workers,
		now:         time.Now,
	}
}

func (s *SalaryServiceImpl) guard() periodGuard {
	return periodGuard{locker: s.locker, runRepo: s.runRepo, now: s.now}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func errInactive() error {
	return validator.ValidationErrors{}.Add("employee_id", "employee is not active")
}

// ========== GENERATION ==========

// GenerateMonthlyRun creates one receipt per active employee that does not
// have one yet. Per-employee failures are collected into the result; only a
// closed run or a failing directory aborts the call.
func (s *SalaryServiceImpl) GenerateMonthlyRun(ctx context.Context, period payroll.Period) (*payroll.RunResult, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if err := s.guard().ensureOpen(ctx, period); err != nil {
		return nil, err
	}

	employees, err := s.directory.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}

	existing, err := s.receiptRepo.EmployeeIDsByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing receipts: %w", err)
	}

	results := newRunCollector(period)
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, emp := range employees {
		if !emp.IsActive() {
			continue
		}
		if _, ok := existing[emp.ID]; ok {
			results.skip(emp.ID, payroll.ErrDuplicatePeriod)
			continue
		}

		g.Go(func() error {
			receipt, err := s.buildReceipt(ctx, period, emp)
			if err == nil {
				err = s.guard().write(ctx, period, func(ctx context.Context) error {
					return s.receiptRepo.Create(ctx, receipt)
				})
			}
			if err != nil {
				results.skip(emp.ID, err)
				return nil
			}
			results.created()
			return nil
		})
	}
	_ = g.Wait()

	result := results.result()
	slog.Info("Salary run generated",
		"period", period.String(),
		"created", result.Created,
		"already_existing", result.AlreadyExisting(),
		"failed", result.Failed(),
	)
	return result, nil
}

// buildReceipt gathers the employee's attendance and advances and runs the calculator.
func (s *SalaryServiceImpl) buildReceipt(ctx context.Context, period payroll.Period, emp employee.Employee) (*payroll.SalaryReceipt, error) {
	att, err := s.attendance.Summary(ctx, emp.ID, period.Year, period.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance summary: %w", err)
	}

	advance, err := s.advanceRepo.SumByEmployeePeriod(ctx, emp.ID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to sum advances: %w", err)
	}

	breakdown, err := s.calculator.Compute(emp, period, att, advance)
	if err != nil {
		return nil, err
	}

	now := s.now()
	receipt := &payroll.SalaryReceipt{
		ID:             newID(),
		EmployeeID:     emp.ID,
		EmployeeName:   emp.FullName,
		BranchID:       emp.BranchID,
		BankAccountRef: emp.BankAccountRef,
		Period:         period,
		Status:         payroll.ReceiptStatusGenerated,
		PaymentDate:    period.End(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	receipt.ApplyBreakdown(breakdown)
	return receipt, nil
}

// CreateReceipt generates a single receipt. Unlike the batch, an existing
// receipt for the same employee and period is reported as ErrDuplicatePeriod.
func (s *SalaryServiceImpl) CreateReceipt(ctx context.Context, req payroll.CreateReceiptRequest) (*payroll.SalaryReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	period := req.Period()

	emp, err := s.directory.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive() {
		return nil, errInactive()
	}

	if err := s.guard().ensureOpen(ctx, period); err != nil {
		return nil, err
	}

	receipt, err := s.buildReceipt(ctx, period, *emp)
	if err != nil {
		return nil, err
	}

	err = s.guard().write(ctx, period, func(ctx context.Context) error {
		return s.receiptRepo.Create(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// RegenerateReceipt recomputes a receipt that has not been delivered yet.
func (s *SalaryServiceImpl) RegenerateReceipt(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	current, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	emp, err := s.directory.GetByID(ctx, current.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive() {
		return nil, errInactive()
	}

	fresh, err := s.buildReceipt(ctx, current.Period, *emp)
	if err != nil {
		return nil, err
	}

	var updated *payroll.SalaryReceipt
	err = s.guard().write(ctx, current.Period, func(ctx context.Context) error {
		locked, err := s.receiptRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if locked.Status != payroll.ReceiptStatusGenerated {
			return fmt.Errorf("%w: regenerate from %q", payroll.ErrInvalidTransition, locked.Status)
		}

		fresh.ID = locked.ID
		fresh.CreatedAt = locked.CreatedAt
		if err := s.receiptRepo.Replace(ctx, fresh); err != nil {
			return err
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ========== READS ==========

func (s *SalaryServiceImpl) GetReceipt(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	return s.receiptRepo.GetByID(ctx, id)
}

func (s *SalaryServiceImpl) ListReceipts(ctx context.Context, filter payroll.ReceiptFilter) ([]payroll.SalaryReceipt, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.receiptRepo.List(ctx, filter)
}

// ========== STATE TRANSITIONS ==========

// Deliver sends the receipt through the notifier and moves it to SENT. The
// send happens outside the period lock; the status is applied afterwards only
// if the run is still open and the receipt was not regenerated meanwhile.
func (s *SalaryServiceImpl) Deliver(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var pending *payroll.SalaryReceipt
	err = s.guard().write(ctx, receipt.Period, func(ctx context.Context) error {
		locked, err := s.receiptRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := locked.Status.AfterDelivery(); err != nil {
			return err
		}
		pending = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	emp, err := s.directory.GetByID(ctx, pending.EmployeeID)
	if err != nil {
		return nil, err
	}

	paymentDate := pending.PaymentDate
	err = s.notifier.DeliverReceipt(ctx, notification.ReceiptDelivery{
		ReceiptID:    pending.ID,
		Kind:         notification.ReceiptKindSalary,
		EmployeeID:   pending.EmployeeID,
		EmployeeName: pending.EmployeeName,
		Email:        emp.Email,
		Period:       pending.Period.String(),
		Amount:       pending.Net.String(),
		PaymentDate:  &paymentDate,
	})
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, id, func(_ context.Context, r *payroll.SalaryReceipt) (payroll.ReceiptStatus, error) {
		if !r.Net.Equal(pending.Net) {
			return "", fmt.Errorf("%w: receipt changed while it was being delivered", payroll.ErrInvalidTransition)
		}
		return r.Status.AfterDelivery()
	})
}

func (s *SalaryServiceImpl) MarkDownloaded(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	return s.transition(ctx, id, func(_ context.Context, r *payroll.SalaryReceipt) (payroll.ReceiptStatus, error) {
		return r.Status.AfterDownload()
	})
}

func (s *SalaryServiceImpl) transition(
	ctx context.Context,
	id string,
	next func(ctx context.Context, r *payroll.SalaryReceipt) (payroll.ReceiptStatus, error),
) (*payroll.SalaryReceipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *payroll.SalaryReceipt
	err = s.guard().write(ctx, receipt.Period, func(ctx context.Context) error {
		locked, err := s.receiptRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		status, err := next(ctx, locked)
		if err != nil {
			return err
		}
		if err := s.receiptRepo.UpdateStatus(ctx, id, status, s.now()); err != nil {
			return err
		}

		updated, err = s.receiptRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ========== ADVANCES ==========

// RecordAdvance registers an advance-on-salary, deducted by the next generation of that period.
func (s *SalaryServiceImpl) RecordAdvance(ctx context.Context, req payroll.RecordAdvanceRequest) (*payroll.SalaryAdvance, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	period := req.Period()

	if _, err := s.directory.GetByID(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	amount, err := payroll.NewMoney(req.Amount)
	if err != nil {
		return nil, err
	}

	advance := &payroll.SalaryAdvance{
		ID:         newID(),
		EmployeeID: req.EmployeeID,
		Period:     period,
		Amount:     amount,
		Note:       req.Note,
		CreatedAt:  s.now(),
	}

	err = s.guard().write(ctx, period, func(ctx context.Context) error {
		return s.advanceRepo.Create(ctx, advance)
	})
	if err != nil {
		return nil, err
	}
	return advance, nil
}

// ========== RESULT COLLECTION ==========

type runCollector struct {
	mu      sync.Mutex
	period  payroll.Period
	count   int
	skipped []payroll.SkipReason
}

func newRunCollector(period payroll.Period) *runCollector {
	return &runCollector{period: period}
}

func (c *runCollector) created() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *runCollector) skip(employeeID string, err error) {
	code := payroll.ClassifySkip(err)
	if code == payroll.SkipAlreadyExists {
		slog.Debug("Receipt already exists, skipping", "employee_id", employeeID, "period", c.period.String())
	} else {
		slog.Warn("Skipping employee in payroll run",
			"employee_id", employeeID,
			"period", c.period.String(),
			"reason", code,
			"error", err,
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped = append(c.skipped, payroll.SkipReason{
		EmployeeID: employeeID,
		Code:       code,
		Message:    err.Error(),
		Err:        err,
	})
}

// result orders skips by employee so the outcome does not depend on scheduling.
func (c *runCollector) result() *payroll.RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	skipped := append([]payroll.SkipReason(nil), c.skipped...)
	sort.Slice(skipped, func(i, j int) bool {
		return skipped[i].EmployeeID < skipped[j].EmployeeID
	})
	if skipped == nil {
		skipped = []payroll.SkipReason{}
	}

	return &payroll.RunResult{
		Period:  c.period,
		Created: c.count,
		Skipped: skipped,
	}
}
