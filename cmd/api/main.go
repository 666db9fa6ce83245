package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository"
	notificationService "github.com/cmlabs-hris/hris-payroll-go/internal/service/notification"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	store, err := repository.Open(cfg.Database, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error opening database: ", err)
	}
	defer store.Close()

	calculator, err := payrollService.NewDeductionCalculator(cfg.Payroll)
	if err != nil {
		log.Fatal("Invalid payroll configuration: ", err)
	}
	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service: ", err)
	}
	if cfg.SMTP.Host == "" {
		slog.Warn("SMTP_HOST is empty, receipt delivery will fail until it is set")
	}
	notifier := notificationService.NewEmailNotifier(emailService)

	salarySvc := payrollService.NewSalaryService(
		store.Receipts,
		store.Advances,
		store.Runs,
		store.Locker,
		store.Employees,
		store.Attendance,
		notifier,
		calculator,
		cfg.Payroll.Workers,
	)
	commissionSvc := payrollService.NewCommissionService(
		store.Commissions,
		store.Runs,
		store.Locker,
		store.Employees,
		notifier,
		cfg.Payroll.Workers,
	)
	aguinaldoSvc := payrollService.NewAguinaldoService(store.Receipts, store.Employees)
	runSvc := payrollService.NewRunService(store.Runs, store.Receipts, store.Commissions, store.Locker)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	payrollHandler := appHTTP.NewPayrollHandler(salarySvc, runSvc, aguinaldoSvc)
	commissionHandler := appHTTP.NewCommissionHandler(commissionSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Env:         cfg.App.Env,
			Version:     version,
			CORSOrigins: cfg.App.CORSOrigins,
			LogLevel:    cfg.SlogLevel(),
		},
		JWTService,
		payrollHandler,
		commissionHandler,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := cron.NewScheduler(ctx)
	if cfg.Payroll.AutoGenerate {
		cron.NewPayrollJobs(salarySvc, cfg.Payroll.AutoGenerateDay).RegisterJobs(scheduler)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
}
