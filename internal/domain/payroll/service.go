package payroll

import (
	"context"
	"io"
)

type SalaryService interface {
	GenerateMonthlyRun(ctx context.Context, period Period) (*RunResult, error)
	CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*SalaryReceipt, error)
	RegenerateReceipt(ctx context.Context, id string) (*SalaryReceipt, error)
	GetReceipt(ctx context.Context, id string) (*SalaryReceipt, error)
	ListReceipts(ctx context.Context, filter ReceiptFilter) ([]SalaryReceipt, error)
	Deliver(ctx context.Context, id string) (*SalaryReceipt, error)
	MarkDownloaded(ctx context.Context, id string) (*SalaryReceipt, error)
	RecordAdvance(ctx context.Context, req RecordAdvanceRequest) (*SalaryAdvance, error)
}

type CommissionService interface {
	Create(ctx context.Context, req CreateCommissionRequest) (*CommissionReceipt, error)
	GenerateRun(ctx context.Context, req GenerateCommissionRunRequest) (*RunResult, error)
	Get(ctx context.Context, id string) (*CommissionReceipt, error)
	List(ctx context.Context, filter CommissionFilter) ([]CommissionReceipt, error)
	Finalize(ctx context.Context, id string) (*CommissionReceipt, error)
	Deliver(ctx context.Context, id string) (*CommissionReceipt, error)
}

type AguinaldoService interface {
	Project(ctx context.Context, employeeID string, year int) (*AguinaldoProjection, error)
}

type RunService interface {
	Summary(ctx context.Context, period Period) (*RunSummary, error)
	Close(ctx context.Context, period Period) (*RunSummary, error)
	BankExport(ctx context.Context, period Period) ([]BankTransferLine, error)
	WriteBankExportCSV(ctx context.Context, period Period, w io.Writer) error
}
