package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ==========================================
// DEMO WORKFORCE
// ==========================================

// EmployeeRow is the CSV layout accepted by LoadEmployeesCSV.
type EmployeeRow struct {
	ID             string `csv:"id"`
	FullName       string `csv:"full_name"`
	Email          string `csv:"email"`
	BranchID       string `csv:"branch_id"`
	HireDate       string `csv:"hire_date"`
	Status         string `csv:"status"`
	BankName       string `csv:"bank_name"`
	BankAccountRef string `csv:"bank_account_ref"`
	GrossSalary    string `csv:"gross_salary"`
	Bonuses        string `csv:"bonuses"`
}

// DemoEmployees covers every branch of the calculator: a plain salary, one
// with bonuses, one without a configured salary and an inactive employee.
func DemoEmployees(now time.Time) []employee.Employee {
	hired := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	return []employee.Employee{
		{
			ID: "emp-001", FullName: "Andi Pratama", Email: "andi.pratama@example.com",
			BranchID: strPtr("branch-jkt"), HireDate: hired, Status: employee.EmploymentStatusActive,
			BankName: "BCA", BankAccountRef: "0012345678",
			GrossSalary: decPtr("6500000"), Bonuses: decimal.Zero,
		},
		{
			ID: "emp-002", FullName: "Siti Rahmawati", Email: "siti.rahmawati@example.com",
			BranchID: strPtr("branch-jkt"), HireDate: hired.AddDate(0, 3, 0), Status: employee.EmploymentStatusActive,
			BankName: "Mandiri", BankAccountRef: "1230004567",
			GrossSalary: decPtr("9000000"), Bonuses: decimal.RequireFromString("1000000"),
		},
		{
			ID: "emp-003", FullName: "Budi Santoso", Email: "",
			BranchID: strPtr("branch-bdg"), HireDate: hired.AddDate(1, 0, 0), Status: employee.EmploymentStatusActive,
			BankName: "BNI", BankAccountRef: "9876543210",
			GrossSalary: decPtr("5000000"), Bonuses: decimal.RequireFromString("250000"),
		},
		{
			ID: "emp-004", FullName: "Dewi Lestari", Email: "dewi.lestari@example.com",
			BranchID: strPtr("branch-bdg"), HireDate: now.AddDate(0, -1, 0).UTC(), Status: employee.EmploymentStatusActive,
			BankName: "BRI", BankAccountRef: "5550001112",
		},
		{
			ID: "emp-005", FullName: "Eko Wijaya", Email: "eko.wijaya@example.com",
			BranchID: strPtr("branch-jkt"), HireDate: hired, Status: employee.EmploymentStatusTerminated,
			BankName: "BCA", BankAccountRef: "0019998887",
			GrossSalary: decPtr("7000000"), Bonuses: decimal.Zero,
		},
	}
}

// DemoAttendance marks a few absences and late arrivals in the given period.
func DemoAttendance(period payroll.Period) []attendance.Record {
	day := func(d int) time.Time { return period.Start().AddDate(0, 0, d-1) }
	return []attendance.Record{
		{EmployeeID: "emp-001", Date: day(3), Status: attendance.StatusAbsent},
		{EmployeeID: "emp-001", Date: day(4), Status: attendance.StatusAbsent},
		{EmployeeID: "emp-001", Date: day(10), Status: attendance.StatusLate, LateMinutes: 25},
		{EmployeeID: "emp-002", Date: day(7), Status: attendance.StatusLeave},
		{EmployeeID: "emp-003", Date: day(12), Status: attendance.StatusAbsent},
		{EmployeeID: "emp-003", Date: day(13), Status: attendance.StatusLate, LateMinutes: 10},
	}
}

// ==========================================
// LOADING
// ==========================================

// LoadEmployeesCSV parses EmployeeRow records into directory entries.
func LoadEmployeesCSV(r io.Reader) ([]employee.Employee, error) {
	var rows []EmployeeRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse employee csv: %w", err)
	}

	employees := make([]employee.Employee, 0, len(rows))
	for i, row := range rows {
		emp, err := row.toEmployee()
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i+2, row.ID, err)
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

func (row EmployeeRow) toEmployee() (employee.Employee, error) {
	if strings.TrimSpace(row.ID) == "" {
		return employee.Employee{}, errors.New("id is required")
	}

	emp := employee.Employee{
		ID:             strings.TrimSpace(row.ID),
		FullName:       strings.TrimSpace(row.FullName),
		Email:          strings.TrimSpace(row.Email),
		Status:         employee.EmploymentStatusActive,
		BankName:       strings.TrimSpace(row.BankName),
		BankAccountRef: strings.TrimSpace(row.BankAccountRef),
		Bonuses:        decimal.Zero,
	}
	if row.BranchID != "" {
		emp.BranchID = strPtr(strings.TrimSpace(row.BranchID))
	}
	if row.Status != "" {
		emp.Status = employee.EmploymentStatus(strings.ToLower(strings.TrimSpace(row.Status)))
	}
	if row.HireDate != "" {
		hired, err := time.Parse("2006-01-02", strings.TrimSpace(row.HireDate))
		if err != nil {
			return employee.Employee{}, fmt.Errorf("invalid hire_date: %w", err)
		}
		emp.HireDate = hired
	}
	if row.GrossSalary != "" {
		gross, err := decimal.NewFromString(strings.TrimSpace(row.GrossSalary))
		if err != nil {
			return employee.Employee{}, fmt.Errorf("invalid gross_salary: %w", err)
		}
		emp.GrossSalary = &gross
	}
	if row.Bonuses != "" {
		bonuses, err := decimal.NewFromString(strings.TrimSpace(row.Bonuses))
		if err != nil {
			return employee.Employee{}, fmt.Errorf("invalid bonuses: %w", err)
		}
		emp.Bonuses = bonuses
	}
	return emp, nil
}

// ==========================================
// SEEDING
// ==========================================

type SeedResult struct {
	EmployeesCreated  int
	EmployeesExisting int
	AttendanceRecords int
}

type Seeder struct {
	employees  employee.EmployeeRepository
	attendance attendance.AttendanceRepository
	now        func() time.Time
}

func NewSeeder(employees employee.EmployeeRepository, attendanceRepo attendance.AttendanceRepository) *Seeder {
	return &Seeder{
		employees:  employees,
		attendance: attendanceRepo,
		now:        time.Now,
	}
}

// Seed inserts employees and attendance; existing employees are left untouched
// and attendance rows are upserted, so re-running is harmless.
func (s *Seeder) Seed(ctx context.Context, employees []employee.Employee, records []attendance.Record) (*SeedResult, error) {
	result := &SeedResult{}
	now := s.now()

	for i := range employees {
		emp := employees[i]
		emp.CreatedAt, emp.UpdatedAt = now, now
		err := s.employees.Create(ctx, &emp)
		switch {
		case errors.Is(err, employee.ErrEmployeeExists):
			result.EmployeesExisting++
		case err != nil:
			return nil, fmt.Errorf("failed to seed employee %s: %w", emp.ID, err)
		default:
			result.EmployeesCreated++
		}
	}

	for i := range records {
		rec := records[i]
		if rec.ID == "" {
			rec.ID = uuid.Must(uuid.NewV7()).String()
		}
		rec.CreatedAt = now
		if err := s.attendance.Create(ctx, &rec); err != nil {
			return nil, fmt.Errorf("failed to seed attendance for %s: %w", rec.EmployeeID, err)
		}
		result.AttendanceRecords++
	}

	slog.Info("Fixtures seeded",
		"employees_created", result.EmployeesCreated,
		"employees_existing", result.EmployeesExisting,
		"attendance_records", result.AttendanceRecords,
	)
	return result, nil
}
