package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/gocarina/gocsv"
)

// periodGuard runs receipt writes under the shared period lock after checking
// the run is still open. Close takes the exclusive lock, so a write either
// commits before the close snapshot or observes the closed run.
type periodGuard struct {
	locker  payroll.PeriodLocker
	runRepo payroll.PayrollRunRepository
	now     func() time.Time
}

func (g periodGuard) checkOpen(ctx context.Context, period payroll.Period) error {
	run, err := g.runRepo.Get(ctx, period)
	if err != nil {
		if errors.Is(err, payroll.ErrRunNotFound) {
			return nil
		}
		return err
	}
	if run.IsClosed() {
		return fmt.Errorf("%s: %w", period, payroll.ErrRunClosed)
	}
	return nil
}

// ensureOpen creates the run row on first use and stamps generated_at.
func (g periodGuard) ensureOpen(ctx context.Context, period payroll.Period) error {
	return g.locker.WithSharedLock(ctx, period, func(ctx context.Context) error {
		if err := g.checkOpen(ctx, period); err != nil {
			return err
		}
		return g.runRepo.Ensure(ctx, period, g.now())
	})
}

func (g periodGuard) write(ctx context.Context, period payroll.Period, fn func(ctx context.Context) error) error {
	return g.locker.WithSharedLock(ctx, period, func(ctx context.Context) error {
		if err := g.checkOpen(ctx, period); err != nil {
			return err
		}
		return fn(ctx)
	})
}

func validatePeriod(period payroll.Period) error {
	if !period.Valid() {
		return validator.ValidationErrors{}.Add("period", "must be a valid YYYY-MM period")
	}
	return nil
}

type RunServiceImpl struct {
	runRepo        payroll.PayrollRunRepository
	receiptRepo    payroll.SalaryReceiptRepository
	commissionRepo payroll.CommissionReceiptRepository
	locker         payroll.PeriodLocker
	now            func() time.Time
}

func NewRunService(
	runRepo payroll.PayrollRunRepository,
	receiptRepo payroll.SalaryReceiptRepository,
	commissionRepo payroll.CommissionReceiptRepository,
	locker payroll.PeriodLocker,
) payroll.RunService {
	return &RunServiceImpl{
		runRepo:        runRepo,
		receiptRepo:    receiptRepo,
		commissionRepo: commissionRepo,
		locker:         locker,
		now:            time.Now,
	}
}

func (s *RunServiceImpl) guard() periodGuard {
	return periodGuard{locker: s.locker, runRepo: s.runRepo, now: s.now}
}

// Summary works in any state. A period that was never touched reports an
// open run with zero totals.
func (s *RunServiceImpl) Summary(ctx context.Context, period payroll.Period) (*payroll.RunSummary, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	summary := &payroll.RunSummary{Period: period, Status: payroll.RunStatusOpen}
	run, err := s.runRepo.Get(ctx, period)
	switch {
	case err == nil:
		summary.Status = run.Status
		summary.GeneratedAt = run.GeneratedAt
		summary.ClosedAt = run.ClosedAt
	case !errors.Is(err, payroll.ErrRunNotFound):
		return nil, err
	}

	totals, err := s.totals(ctx, period)
	if err != nil {
		return nil, err
	}
	summary.RunTotals = totals
	return summary, nil
}

func (s *RunServiceImpl) Close(ctx context.Context, period payroll.Period) (*payroll.RunSummary, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	var summary *payroll.RunSummary
	err := s.locker.WithExclusiveLock(ctx, period, func(ctx context.Context) error {
		run, err := s.runRepo.Get(ctx, period)
		if err != nil {
			return err
		}
		if run.IsClosed() {
			return fmt.Errorf("%s: %w", period, payroll.ErrRunAlreadyClosed)
		}

		totals, err := s.totals(ctx, period)
		if err != nil {
			return err
		}

		closedAt := s.now()
		if err := s.runRepo.MarkClosed(ctx, period, totals, closedAt); err != nil {
			return err
		}

		summary = &payroll.RunSummary{
			Period:      period,
			Status:      payroll.RunStatusClosed,
			GeneratedAt: run.GeneratedAt,
			ClosedAt:    &closedAt,
			RunTotals:   totals,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Payroll run closed",
		"period", period.String(),
		"receipts", summary.ReceiptCount,
		"commissions", summary.CommissionCount,
		"total_net", summary.TotalNet.String(),
	)
	return summary, nil
}

// BankExport lists (employee, bank account, net) for a closed run, ordered by employee id.
func (s *RunServiceImpl) BankExport(ctx context.Context, period payroll.Period) ([]payroll.BankTransferLine, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	run, err := s.runRepo.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	if !run.IsClosed() {
		return nil, fmt.Errorf("%s: %w", period, payroll.ErrRunNotClosed)
	}

	receipts, err := s.receiptRepo.List(ctx, payroll.ForPeriod(period))
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	lines := make([]payroll.BankTransferLine, 0, len(receipts))
	for _, r := range receipts {
		lines = append(lines, payroll.BankTransferLine{
			EmployeeID:     r.EmployeeID,
			BankAccountRef: r.BankAccountRef,
			NetAmount:      r.Net,
		})
	}
	return lines, nil
}

func (s *RunServiceImpl) WriteBankExportCSV(ctx context.Context, period payroll.Period, w io.Writer) error {
	lines, err := s.BankExport(ctx, period)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(lines, w); err != nil {
		return fmt.Errorf("failed to write bank export: %w", err)
	}
	return nil
}

func (s *RunServiceImpl) totals(ctx context.Context, period payroll.Period) (payroll.RunTotals, error) {
	totals, err := s.receiptRepo.Totals(ctx, period)
	if err != nil {
		return payroll.RunTotals{}, fmt.Errorf("failed to aggregate receipts: %w", err)
	}
	commissions, err := s.commissionRepo.Totals(ctx, period)
	if err != nil {
		return payroll.RunTotals{}, fmt.Errorf("failed to aggregate commissions: %w", err)
	}
	totals.CommissionCount = commissions.CommissionCount
	totals.TotalCommission = commissions.TotalCommission
	return totals, nil
}
