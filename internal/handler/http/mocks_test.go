package http

import (
	"context"
	"io"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/stretchr/testify/mock"
)

type mockSalaryService struct {
	mock.Mock
}

func (m *mockSalaryService) GenerateMonthlyRun(ctx context.Context, period payroll.Period) (*payroll.RunResult, error) {
	args := m.Called(ctx, period)
	result, _ := args.Get(0).(*payroll.RunResult)
	return result, args.Error(1)
}

func (m *mockSalaryService) CreateReceipt(ctx context.Context, req payroll.CreateReceiptRequest) (*payroll.SalaryReceipt, error) {
	args := m.Called(ctx, req)
	receipt, _ := args.Get(0).(*payroll.SalaryReceipt)
	return receipt, args.Error(1)
}

func (m *mockSalaryService) RegenerateReceipt(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	args := m.Called(ctx, id)
	receipt, _ := args.Get(0).(*payroll.SalaryReceipt)
	return receipt, args.Error(1)
}

func (m *mockSalaryService) GetReceipt(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	args := m.Called(ctx, id)
	receipt, _ := args.Get(0).(*payroll.SalaryReceipt)
	return receipt, args.Error(1)
}

func (m *mockSalaryService) ListReceipts(ctx context.Context, filter payroll.ReceiptFilter) ([]payroll.SalaryReceipt, error) {
	args := m.Called(ctx, filter)
	receipts, _ := args.Get(0).([]payroll.SalaryReceipt)
	return receipts, args.Error(1)
}

func (m *mockSalaryService) Deliver(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	args := m.Called(ctx, id)
	receipt, _ := args.Get(0).(*payroll.SalaryReceipt)
	return receipt, args.Error(1)
}

func (m *mockSalaryService) MarkDownloaded(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	args := m.Called(ctx, id)
	receipt, _ := args.Get(0).(*payroll.SalaryReceipt)
	return receipt, args.Error(1)
}

func (m *mockSalaryService) RecordAdvance(ctx context.Context, req payroll.RecordAdvanceRequest) (*payroll.SalaryAdvance, error) {
	args := m.Called(ctx, req)
	advance, _ := args.Get(0).(*payroll.SalaryAdvance)
	return advance, args.Error(1)
}

type mockRunService struct {
	mock.Mock
}

func (m *mockRunService) Summary(ctx context.Context, period payroll.Period) (*payroll.RunSummary, error) {
	args := m.Called(ctx, period)
	summary, _ := args.Get(0).(*payroll.RunSummary)
	return summary, args.Error(1)
}

func (m *mockRunService) Close(ctx context.Context, period payroll.Period) (*payroll.RunSummary, error) {
	args := m.Called(ctx, period)
	summary, _ := args.Get(0).(*payroll.RunSummary)
	return summary, args.Error(1)
}

func (m *mockRunService) BankExport(ctx context.Context, period payroll.Period) ([]payroll.BankTransferLine, error) {
	args := m.Called(ctx, period)
	lines, _ := args.Get(0).([]payroll.BankTransferLine)
	return lines, args.Error(1)
}

func (m *mockRunService) WriteBankExportCSV(ctx context.Context, period payroll.Period, w io.Writer) error {
	args := m.Called(ctx, period, w)
	if body := args.String(0); body != "" {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(1)
}

type mockAguinaldoService struct {
	mock.Mock
}

func (m *mockAguinaldoService) Project(ctx context.Context, employeeID string, year int) (*payroll.AguinaldoProjection, error) {
	args := m.Called(ctx, employeeID, year)
	projection, _ := args.Get(0).(*payroll.AguinaldoProjection)
	return projection, args.Error(1)
}

type mockCommissionService struct {
	mock.Mock
}

func (m *mockCommissionService) Create(ctx context.Context, req payroll.CreateCommissionRequest) (*payroll.CommissionReceipt, error) {
	args := m.Called(ctx, req)
	receipt, _ := args.Get(0).(*payroll.CommissionReceipt)
	return receipt, args.Error(1)
}

func (m *mockCommissionService) GenerateRun(ctx context.Context, req payroll.GenerateCommissionRunRequest) (*payroll.RunResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*payroll.RunResult)
	return result, args.Error(1)
}

func (m *mockCommissionService) Get(ctx context.Context, id string) (*payroll.CommissionReceipt, error) {
	args := m.Called(ctx, id)
	receipt, _ := args.Get(0).(*payroll.CommissionReceipt)
	return receipt, args.Error(1)
}

func (m *mockCommissionService) List(ctx context.Context, filter payroll.CommissionFilter) ([]payroll.CommissionReceipt, error) {
	args := m.Called(ctx, filter)
	receipts, _ := args.Get(0).([]payroll.CommissionReceipt)
	return receipts, args.Error(1)
}

func (m *mockCommissionService) Finalize(ctx context.Context, id string) (*payroll.CommissionReceipt, error) {
	args := m.Called(ctx, id)
	receipt, _ := args.Get(0).(*payroll.CommissionReceipt)
	return receipt, args.Error(1)
}

func (m *mockCommissionService) Deliver(ctx context.Context, id string) (*payroll.CommissionReceipt, error) {
	args := m.Called(ctx, id)
	receipt, _ := args.Get(0).(*payroll.CommissionReceipt)
	return receipt, args.Error(1)
}
