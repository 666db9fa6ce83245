package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository"
)

func main() {
	csvPath := flag.String("employees", "", "CSV file of employees to load instead of the demo workforce")
	periodFlag := flag.String("period", "", "period (YYYY-MM) of the demo attendance, current month by default")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	period := payroll.PeriodOf(time.Now().UTC())
	if *periodFlag != "" {
		period, err = payroll.ParsePeriod(*periodFlag)
		if err != nil {
			log.Fatal(err)
		}
	}

	store, err := repository.Open(cfg.Database, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error opening database: ", err)
	}
	defer store.Close()

	var (
		employees []employee.Employee
		records   []attendance.Record
	)
	if *csvPath != "" {
		f, err := os.Open(*csvPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		employees, err = fixtures.LoadEmployeesCSV(f)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		employees = fixtures.DemoEmployees(time.Now())
		records = fixtures.DemoAttendance(period)
	}

	seeder := fixtures.NewSeeder(store.Employees, store.Attendance)
	if _, err := seeder.Seed(context.Background(), employees, records); err != nil {
		log.Fatal(err)
	}
}
