package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"golang.org/x/sync/errgroup"
)

type CommissionServiceImpl struct {
	repo      payroll.CommissionReceiptRepository
	runRepo   payroll.PayrollRunRepository
	locker    payroll.PeriodLocker
	directory employee.Directory
	notifier  notification.ReceiptNotifier
	workers   int
	now       func() time.Time
}

func NewCommissionService(
	repo payroll.CommissionReceiptRepository,
	runRepo payroll.PayrollRunRepository,
	locker payroll.PeriodLocker,
	directory employee.Directory,
	notifier notification.ReceiptNotifier,
	workers int,
) payroll.CommissionService {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &CommissionServiceImpl{
		repo:      repo,
		runRepo:   runRepo,
		locker:    locker,
		directory: directory,
		notifier:  notifier,
		workers:   workers,
		now:       time.Now,
	}
}

func (s *CommissionServiceImpl) guard() periodGuard {
	return periodGuard{locker: s.locker, runRepo: s.runRepo, now: s.now}
}

func (s *CommissionServiceImpl) newReceipt(period payroll.Period, emp *employee.Employee, entry payroll.CommissionEntry, status payroll.CommissionStatus) (*payroll.CommissionReceipt, error) {
	production, err := payroll.NewMoney(entry.ProductionAmount)
	if err != nil {
		return nil, err
	}
	commission, err := payroll.NewMoney(entry.CommissionAmount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &payroll.CommissionReceipt{
		ID:                    newID(),
		EmployeeID:            emp.ID,
		EmployeeName:          emp.FullName,
		BranchID:              emp.BranchID,
		Period:                period,
		ProductionAmount:      production,
		TargetAchievedPercent: entry.TargetAchievedPercent.Round(2),
		CommissionAmount:      commission,
		Status:                status,
		Notes:                 entry.Notes,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Create records a manual commission entry as a draft.
func (s *CommissionServiceImpl) Create(ctx context.Context, req payroll.CreateCommissionRequest) (*payroll.CommissionReceipt, error) {
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

	receipt, err := s.newReceipt(period, emp, req.CommissionEntry, payroll.CommissionStatusDraft)
	if err != nil {
		return nil, err
	}

	err = s.guard().write(ctx, period, func(ctx context.Context) error {
		return s.repo.Create(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// GenerateRun persists one generated commission receipt per entry with the
// same skip semantics as the salary run.
func (s *CommissionServiceImpl) GenerateRun(ctx context.Context, req payroll.GenerateCommissionRunRequest) (*payroll.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	period := req.Period()

	if err := s.guard().ensureOpen(ctx, period); err != nil {
		return nil, err
	}

	existing, err := s.repo.EmployeeIDsByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing commissions: %w", err)
	}

	results := newRunCollector(period)
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, entry := range req.Entries {
		if _, ok := existing[entry.EmployeeID]; ok {
			results.skip(entry.EmployeeID, payroll.ErrDuplicatePeriod)
			continue
		}

		g.Go(func() error {
			if err := s.generateOne(ctx, period, entry); err != nil {
				results.skip(entry.EmployeeID, err)
				return nil
			}
			results.created()
			return nil
		})
	}
	_ = g.Wait()

	result := results.result()
	slog.Info("Commission run generated",
		"period", period.String(),
		"created", result.Created,
		"already_existing", result.AlreadyExisting(),
		"failed", result.Failed(),
	)
	return result, nil
}

func (s *CommissionServiceImpl) generateOne(ctx context.Context, period payroll.Period, entry payroll.CommissionEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	emp, err := s.directory.GetByID(ctx, entry.EmployeeID)
	if err != nil {
		return err
	}
	if !emp.IsActive() {
		return errInactive()
	}

	receipt, err := s.newReceipt(period, emp, entry, payroll.CommissionStatusGenerated)
	if err != nil {
		return err
	}

	return s.guard().write(ctx, period, func(ctx context.Context) error {
		return s.repo.Create(ctx, receipt)
	})
}

func (s *CommissionServiceImpl) Get(ctx context.Context, id string) (*payroll.CommissionReceipt, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CommissionServiceImpl) List(ctx context.Context, filter payroll.CommissionFilter) ([]payroll.CommissionReceipt, error) {
	return s.repo.List(ctx, filter)
}

func (s *CommissionServiceImpl) Finalize(ctx context.Context, id string) (*payroll.CommissionReceipt, error) {
	return s.transition(ctx, id, func(_ context.Context, r *payroll.CommissionReceipt) (payroll.CommissionStatus, error) {
		return r.Status.AfterFinalize()
	})
}

// Deliver sends outside the period lock, then applies SENT if the run is
// still open and the amount did not change in between.
func (s *CommissionServiceImpl) Deliver(ctx context.Context, id string) (*payroll.CommissionReceipt, error) {
	receipt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var pending *payroll.CommissionReceipt
	err = s.guard().write(ctx, receipt.Period, func(ctx context.Context) error {
		locked, err := s.repo.GetByID(ctx, id)
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

	err = s.notifier.DeliverReceipt(ctx, notification.ReceiptDelivery{
		ReceiptID:    pending.ID,
		Kind:         notification.ReceiptKindCommission,
		EmployeeID:   pending.EmployeeID,
		EmployeeName: pending.EmployeeName,
		Email:        emp.Email,
		Period:       pending.Period.String(),
		Amount:       pending.CommissionAmount.String(),
	})
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, id, func(_ context.Context, r *payroll.CommissionReceipt) (payroll.CommissionStatus, error) {
		if !r.CommissionAmount.Equal(pending.CommissionAmount) {
			return "", fmt.Errorf("%w: receipt changed while it was being delivered", payroll.ErrInvalidTransition)
		}
		return r.Status.AfterDelivery()
	})
}

func (s *CommissionServiceImpl) transition(
	ctx context.Context,
	id string,
	next func(ctx context.Context, r *payroll.CommissionReceipt) (payroll.CommissionStatus, error),
) (*payroll.CommissionReceipt, error) {
	receipt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *payroll.CommissionReceipt
	err = s.guard().write(ctx, receipt.Period, func(ctx context.Context) error {
		locked, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		status, err := next(ctx, locked)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, id, status, s.now()); err != nil {
			return err
		}

		updated, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
