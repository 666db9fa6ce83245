package attendance

import "context"

// SummaryProvider must report missing data as a zero Summary, never as an error.
type SummaryProvider interface {
	Summary(ctx context.Context, employeeID string, year, month int) (Summary, error)
}

type AttendanceRepository interface {
	SummaryProvider
	Create(ctx context.Context, record *Record) error
}
