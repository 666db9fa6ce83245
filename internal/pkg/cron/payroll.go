package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

const autoGenerateInterval = 1 * time.Hour

type PayrollJobs struct {
	salaryService payroll.SalaryService
	generateDay   int
	now           func() time.Time

	mu   sync.Mutex
	done payroll.Period
}

// NewPayrollJobs generates the current month's salary run once the calendar
// reaches generateDay (UTC).
func NewPayrollJobs(salaryService payroll.SalaryService, generateDay int) *PayrollJobs {
	return &PayrollJobs{
		salaryService: salaryService,
		generateDay:   generateDay,
		now:           time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_generate_monthly_run", autoGenerateInterval, j.AutoGenerateMonthlyRun)
}

// AutoGenerateMonthlyRun is safe to call repeatedly; generation is idempotent
// and a period is attempted at most once per process once it succeeds.
func (j *PayrollJobs) AutoGenerateMonthlyRun(ctx context.Context) error {
	now := j.now().UTC()
	if now.Day() < j.generateDay {
		return nil
	}
	period := payroll.PeriodOf(now)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done == period {
		return nil
	}

	slog.Info("Cron: Starting monthly payroll generation", "period", period.String())

	result, err := j.salaryService.GenerateMonthlyRun(ctx, period)
	if errors.Is(err, payroll.ErrInvalidState) {
		slog.Info("Cron: Payroll run already closed, skipping", "period", period.String())
		j.done = period
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to generate payroll run %s: %w", period, err)
	}

	j.done = period
	slog.Info("Cron: Monthly payroll generation finished",
		"period", period.String(),
		"created", result.Created,
		"skipped", len(result.Skipped),
	)
	return nil
}
