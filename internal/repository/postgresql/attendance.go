package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

func (r *attendanceRepositoryImpl) Create(ctx context.Context, record *attendance.Record) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (id, employee_id, work_date, status, late_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id, work_date) DO UPDATE
			SET status = EXCLUDED.status, late_minutes = EXCLUDED.late_minutes
	`

	_, err := q.Exec(ctx, query,
		record.ID, record.EmployeeID, record.Date, record.Status, record.LateMinutes, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}
	return nil
}

// Summary counts unexcused absences and total lateness for one month.
func (r *attendanceRepositoryImpl) Summary(ctx context.Context, employeeID string, year, month int) (attendance.Summary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'absent'),
			COALESCE(SUM(late_minutes) FILTER (WHERE status = 'late'), 0)
		FROM attendance_records
		WHERE employee_id = $1
			AND EXTRACT(YEAR FROM work_date) = $2
			AND EXTRACT(MONTH FROM work_date) = $3
	`

	var s attendance.Summary
	if err := q.QueryRow(ctx, query, employeeID, year, month).Scan(&s.AbsenceDays, &s.LatenessMinutes); err != nil {
		return attendance.Summary{}, fmt.Errorf("failed to summarise attendance: %w", err)
	}
	return s, nil
}
