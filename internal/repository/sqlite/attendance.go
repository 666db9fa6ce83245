package sqlite

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewAttendanceRepository(db *database.SQLiteDB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

func (r *attendanceRepositoryImpl) Create(ctx context.Context, record *attendance.Record) error {
	query := `
		INSERT INTO attendance_records (id, employee_id, work_date, status, late_minutes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, work_date) DO UPDATE
			SET status = excluded.status, late_minutes = excluded.late_minutes
	`

	_, err := GetQuerier(ctx, r.db).ExecContext(ctx, query,
		record.ID, record.EmployeeID, record.Date.Format("2006-01-02"), string(record.Status), record.LateMinutes, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}
	return nil
}

// Summary counts unexcused absences and total lateness for one month.
func (r *attendanceRepositoryImpl) Summary(ctx context.Context, employeeID string, year, month int) (attendance.Summary, error) {
	period := payroll.Period{Year: year, Month: month}

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'absent' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'late' THEN late_minutes ELSE 0 END), 0)
		FROM attendance_records
		WHERE employee_id = ? AND work_date BETWEEN ? AND ?
	`

	var s attendance.Summary
	err := GetQuerier(ctx, r.db).QueryRowContext(ctx, query,
		employeeID, period.Start().Format("2006-01-02"), period.End().Format("2006-01-02"),
	).Scan(&s.AbsenceDays, &s.LatenessMinutes)
	if err != nil {
		return attendance.Summary{}, fmt.Errorf("failed to summarise attendance: %w", err)
	}
	return s, nil
}
