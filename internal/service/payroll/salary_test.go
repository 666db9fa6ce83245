package payroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	notificationService "github.com/cmlabs-hris/hris-payroll-go/internal/service/notification"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGenerateMonthlyRun_CreatesReceiptPerActiveEmployee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 4_500_000, withBonuses(2_000_000))
	env.addEmployee(t, "emp-2", 3_000_000)
	env.addEmployee(t, "emp-3", 5_000_000, withStatus(employee.EmploymentStatusTerminated))
	env.addAbsences(t, "emp-2", period, 2)

	result, err := env.salary.GenerateMonthlyRun(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Skipped)

	first, err := env.receipts.GetByEmployeePeriod(ctx, "emp-1", period)
	require.NoError(t, err)
	assert.Equal(t, "585000.00", first.StatutoryDeduction.String())
	assert.Equal(t, "5915000.00", first.Net.String())
	assert.Equal(t, payroll.ReceiptStatusGenerated, first.Status)
	assert.Equal(t, "ACC-emp-1", first.BankAccountRef)
	assert.True(t, period.End().Equal(first.PaymentDate))

	second, err := env.receipts.GetByEmployeePeriod(ctx, "emp-2", period)
	require.NoError(t, err)
	assert.Equal(t, "200000.00", second.AttendanceDeduction.String())
	assert.Equal(t, 2, second.AbsenceDays)
	assert.Equal(t, "absences: 2", second.Notes)

	_, err = env.receipts.GetByEmployeePeriod(ctx, "emp-3", period)
	assert.ErrorIs(t, err, payroll.ErrReceiptNotFound)

	run, err := env.runs.Get(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusOpen, run.Status)
	assert.NotNil(t, run.GeneratedAt)
}

func TestGenerateMonthlyRun_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 3_000_000)
	env.addEmployee(t, "emp-2", 3_000_000)

	first, err := env.salary.GenerateMonthlyRun(ctx, period)
	require.NoError(t, err)
	require.Equal(t, 2, first.Created)

	again, err := env.salary.GenerateMonthlyRun(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	require.Len(t, again.Skipped, 2)
	assert.Equal(t, 2, again.AlreadyExisting())
	assert.Equal(t, 0, again.Failed())
	for _, s := range again.Skipped {
		assert.Equal(t, payroll.SkipAlreadyExists, s.Code)
	}

	receipts, err := env.receipts.List(ctx, payroll.ForPeriod(period))
	require.NoError(t, err)
	assert.Len(t, receipts, 2)
}

func TestGenerateMonthlyRun_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 3_000_000)
	env.addEmployee(t, "emp-2", 3_000_000, withoutSalary())
	env.addEmployee(t, "emp-3", 3_000_000)
	env.addEmployee(t, "emp-4", 3_000_000)
	env.addEmployee(t, "emp-5", 3_000_000, withGross(-1))

	result, err := env.salary.GenerateMonthlyRun(ctx, period)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Created)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 2, result.Failed())
	for i, id := range []string{"emp-2", "emp-5"} {
		skipped := result.Skipped[i]
		assert.Equal(t, id, skipped.EmployeeID)
		assert.Equal(t, payroll.SkipValidation, skipped.Code)

		var verrs validator.ValidationErrors
		if assert.ErrorAs(t, skipped.Err, &verrs) {
			assert.Contains(t, verrs.ToMap(), "gross_salary")
		}
	}

	_, err = env.receipts.GetByEmployeePeriod(ctx, "emp-5", period)
	assert.ErrorIs(t, err, payroll.ErrReceiptNotFound)
}

func TestGenerateMonthlyRun_ConcurrentRunsDoNotDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-04")

	const employees = 12
	for i := 0; i < employees; i++ {
		env.addEmployee(t, "emp-"+string(rune('a'+i)), 2_500_000)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.salary.GenerateMonthlyRun(ctx, period)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, 0, result.Failed())
			mu.Lock()
			created += result.Created
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, employees, created)
	receipts, err := env.receipts.List(ctx, payroll.ForPeriod(period))
	require.NoError(t, err)
	assert.Len(t, receipts, employees)
}

func TestGenerateMonthlyRun_DeductsAdvances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 3_000_000)
	_, err := env.salary.RecordAdvance(ctx, payroll.RecordAdvanceRequest{
		EmployeeID: "emp-1", Year: 2024, Month: 3, Amount: decimal.NewFromInt(250_000), Note: "school fees",
	})
	require.NoError(t, err)
	_, err = env.salary.RecordAdvance(ctx, payroll.RecordAdvanceRequest{
		EmployeeID: "emp-1", Year: 2024, Month: 3, Amount: decimal.NewFromInt(250_000),
	})
	require.NoError(t, err)

	_, err = env.salary.GenerateMonthlyRun(ctx, period)
	require.NoError(t, err)

	receipt, err := env.receipts.GetByEmployeePeriod(ctx, "emp-1", period)
	require.NoError(t, err)
	assert.Equal(t, "500000.00", receipt.AdvanceDeduction.String())
	assert.Equal(t, "500000.00", receipt.OtherDeductions.String())
	assert.Equal(t, "2230000.00", receipt.Net.String())
}

func TestGenerateMonthlyRun_InvalidPeriod(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.salary.GenerateMonthlyRun(context.Background(), payroll.Period{Year: 2024, Month: 0})

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestCreateReceipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addEmployee(t, "emp-1", 3_000_000)
	env.addEmployee(t, "emp-2", 3_000_000, withStatus(employee.EmploymentStatusInactive))
	req := payroll.CreateReceiptRequest{EmployeeID: "emp-1", Year: 2024, Month: 5}

	receipt, err := env.salary.CreateReceipt(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "2730000.00", receipt.Net.String())

	_, err = env.salary.CreateReceipt(ctx, req)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)

	_, err = env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "ghost", Year: 2024, Month: 5})
	assert.ErrorIs(t, err, payroll.ErrNotFound)

	_, err = env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-2", Year: 2024, Month: 5})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestDeliverAndDownload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addEmployee(t, "emp-1", 3_000_000)
	receipt, err := env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-1", Year: 2024, Month: 3})
	require.NoError(t, err)

	_, err = env.salary.MarkDownloaded(ctx, receipt.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	env.notifier.On("DeliverReceipt", mock.Anything, mock.MatchedBy(func(d notification.ReceiptDelivery) bool {
		return d.ReceiptID == receipt.ID &&
			d.Kind == notification.ReceiptKindSalary &&
			d.Email == "emp-1@example.com" &&
			d.Amount == "2730000.00" &&
			d.Period == "2024-03"
	})).Return(nil).Twice()

	sent, err := env.salary.Deliver(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.ReceiptStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	again, err := env.salary.Deliver(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.ReceiptStatusSent, again.Status)

	downloaded, err := env.salary.MarkDownloaded(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.ReceiptStatusDownloaded, downloaded.Status)
	assert.NotNil(t, downloaded.DownloadedAt)

	env.notifier.AssertExpectations(t)
}

func TestDeliver_NotifierFailureKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addEmployee(t, "emp-1", 3_000_000, withoutEmail())
	receipt, err := env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-1", Year: 2024, Month: 3})
	require.NoError(t, err)

	env.notifier.On("DeliverReceipt", mock.Anything, mock.Anything).Return(notification.ErrRecipientMissing)

	_, err = env.salary.Deliver(ctx, receipt.ID)
	assert.ErrorIs(t, err, notification.ErrRecipientMissing)

	stored, err := env.salary.GetReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.ReceiptStatusGenerated, stored.Status)
	assert.Nil(t, stored.SentAt)
}

func TestDeliver_SendsOutsidePeriodLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 3_000_000)
	receipt, err := env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-1", Year: 2024, Month: 3})
	require.NoError(t, err)

	// The run is summarised and closed while the message is in flight.
	var summaryErr, closeErr error
	env.notifier.On("DeliverReceipt", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, summaryErr = env.run.Summary(ctx, period.Next())
			if summaryErr == nil {
				_, closeErr = env.run.Close(ctx, period)
			}
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("period writes blocked while a receipt was being delivered")
		}
	}).Return(nil).Once()

	_, err = env.salary.Deliver(ctx, receipt.ID)
	assert.ErrorIs(t, err, payroll.ErrRunClosed)
	require.NoError(t, summaryErr)
	require.NoError(t, closeErr)

	stored, err := env.salary.GetReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.ReceiptStatusGenerated, stored.Status)
	env.notifier.AssertExpectations(t)
}

func TestDeliver_RegeneratedDuringSendIsNotMarkedSent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 3_000_000)
	receipt, err := env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-1", Year: 2024, Month: 3})
	require.NoError(t, err)

	env.notifier.On("DeliverReceipt", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		env.addAbsences(t, "emp-1", period, 1)
		_, err := env.salary.RegenerateReceipt(ctx, receipt.ID)
		assert.NoError(t, err)
	}).Return(nil).Once()

	_, err = env.salary.Deliver(ctx, receipt.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	stored, err := env.salary.GetReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.ReceiptStatusGenerated, stored.Status)
	assert.Equal(t, "2630000.00", stored.Net.String())
}

func TestDeliver_UnconfiguredSMTPKeepsGenerated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	emailSvc, err := email.NewEmailService(config.SMTPConfig{Port: 587})
	require.NoError(t, err)
	calculator, err := NewDeductionCalculator(defaultPayrollConfig())
	require.NoError(t, err)
	svc := NewSalaryService(env.receipts, env.advances, env.runs, env.locker,
		env.employees, env.attendance, notificationService.NewEmailNotifier(emailSvc), calculator, 2)

	env.addEmployee(t, "emp-1", 3_000_000)
	receipt, err := svc.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-1", Year: 2024, Month: 3})
	require.NoError(t, err)

	_, err = svc.Deliver(ctx, receipt.ID)
	assert.ErrorIs(t, err, notification.ErrDeliveryFailed)
	assert.ErrorIs(t, err, email.ErrNotConfigured)

	stored, err := svc.GetReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.ReceiptStatusGenerated, stored.Status)
	assert.Nil(t, stored.SentAt)
}

func TestRegenerateReceipt_InactiveEmployee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 3_000_000)
	receipt, err := env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-1", Year: 2024, Month: 3})
	require.NoError(t, err)

	env.addAbsences(t, "emp-1", period, 1)
	env.setStatus(t, "emp-1", employee.EmploymentStatusInactive)

	_, err = env.salary.RegenerateReceipt(ctx, receipt.ID)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "employee_id")

	stored, err := env.salary.GetReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "2730000.00", stored.Net.String())
	assert.Equal(t, 0, stored.AbsenceDays)
}

func TestRegenerateReceipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 3_000_000)
	receipt, err := env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-1", Year: 2024, Month: 3})
	require.NoError(t, err)

	env.addAbsences(t, "emp-1", period, 1)
	updated, err := env.salary.RegenerateReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, updated.ID)
	assert.Equal(t, "100000.00", updated.AttendanceDeduction.String())
	assert.Equal(t, "2630000.00", updated.Net.String())

	env.notifier.On("DeliverReceipt", mock.Anything, mock.Anything).Return(nil)
	_, err = env.salary.Deliver(ctx, receipt.ID)
	require.NoError(t, err)

	_, err = env.salary.RegenerateReceipt(ctx, receipt.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestClosedRunIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := mustPeriod(t, "2024-03")

	env.addEmployee(t, "emp-1", 3_000_000)
	env.addEmployee(t, "emp-2", 3_000_000, withoutSalary())
	env.notifier.On("DeliverReceipt", mock.Anything, mock.Anything).Return(nil)

	_, err := env.salary.GenerateMonthlyRun(ctx, period)
	require.NoError(t, err)
	receipt, err := env.receipts.GetByEmployeePeriod(ctx, "emp-1", period)
	require.NoError(t, err)

	_, err = env.run.Close(ctx, period)
	require.NoError(t, err)

	// A late hire cannot be added to the closed period.
	env.addEmployee(t, "emp-3", 3_000_000)

	_, err = env.salary.GenerateMonthlyRun(ctx, period)
	assert.ErrorIs(t, err, payroll.ErrRunClosed)

	_, err = env.salary.CreateReceipt(ctx, payroll.CreateReceiptRequest{EmployeeID: "emp-3", Year: 2024, Month: 3})
	assert.ErrorIs(t, err, payroll.ErrInvalidState)

	_, err = env.salary.RegenerateReceipt(ctx, receipt.ID)
	assert.ErrorIs(t, err, payroll.ErrRunClosed)

	_, err = env.salary.Deliver(ctx, receipt.ID)
	assert.ErrorIs(t, err, payroll.ErrRunClosed)

	_, err = env.salary.RecordAdvance(ctx, payroll.RecordAdvanceRequest{
		EmployeeID: "emp-1", Year: 2024, Month: 3, Amount: decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, payroll.ErrRunClosed)

	receipts, err := env.receipts.List(ctx, payroll.ForPeriod(period))
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, payroll.ReceiptStatusGenerated, receipts[0].Status)
	env.notifier.AssertNotCalled(t, "DeliverReceipt", mock.Anything, mock.Anything)

	// Other periods are unaffected.
	result, err := env.salary.GenerateMonthlyRun(ctx, period.Next())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
}

func TestRecordAdvance_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addEmployee(t, "emp-1", 3_000_000)

	_, err := env.salary.RecordAdvance(ctx, payroll.RecordAdvanceRequest{EmployeeID: "emp-1", Year: 2024, Month: 3})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = env.salary.RecordAdvance(ctx, payroll.RecordAdvanceRequest{
		EmployeeID: "ghost", Year: 2024, Month: 3, Amount: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestListReceipts_Filter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addEmployee(t, "emp-1", 3_000_000)
	env.addEmployee(t, "emp-2", 3_000_000)
	for _, p := range []string{"2024-01", "2024-02"} {
		_, err := env.salary.GenerateMonthlyRun(ctx, mustPeriod(t, p))
		require.NoError(t, err)
	}

	all, err := env.salary.ListReceipts(ctx, payroll.ReceiptFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "emp-1", all[0].EmployeeID)
	assert.Equal(t, 1, all[0].Period.Month)
	assert.Equal(t, 2, all[3].Period.Month)

	emp := "emp-2"
	month := 2
	filtered, err := env.salary.ListReceipts(ctx, payroll.ReceiptFilter{EmployeeID: &emp, Month: &month})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "emp-2", filtered[0].EmployeeID)

	bad := 13
	_, err = env.salary.ListReceipts(ctx, payroll.ReceiptFilter{Month: &bad})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}
