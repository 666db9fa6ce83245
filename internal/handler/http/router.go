package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Env         string
	Version     string
	CORSOrigins []string
	LogLevel    slog.Level
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, payrollHandler PayrollHandler, commissionHandler CommissionHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/payroll", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		// Employees reach their own records; handlers check ownership.
		r.Get("/receipts/{id}", payrollHandler.GetReceipt)
		r.Post("/receipts/{id}/downloaded", payrollHandler.MarkReceiptDownloaded)
		r.Get("/employees/{id}/aguinaldo", payrollHandler.GetAguinaldo)

		// Manager or owner
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireManager)

			r.Route("/runs/{period}", func(r chi.Router) {
				r.Get("/", payrollHandler.GetRunSummary)
				r.Post("/generate", payrollHandler.GenerateRun)
				r.Post("/close", payrollHandler.CloseRun)
				r.Get("/bank-export", payrollHandler.BankExport)
				r.Get("/bank-export.csv", payrollHandler.BankExportCSV)
			})

			r.Get("/receipts", payrollHandler.ListReceipts)
			r.Post("/receipts", payrollHandler.CreateReceipt)
			r.Post("/receipts/{id}/deliver", payrollHandler.DeliverReceipt)
			r.Post("/receipts/{id}/regenerate", payrollHandler.RegenerateReceipt)

			r.Post("/advances", payrollHandler.RecordAdvance)

			r.Route("/commissions", func(r chi.Router) {
				r.Get("/", commissionHandler.List)
				r.Post("/", commissionHandler.Create)
				r.Post("/generate", commissionHandler.GenerateRun)
				r.Get("/{id}", commissionHandler.Get)
				r.Post("/{id}/finalize", commissionHandler.Finalize)
				r.Post("/{id}/deliver", commissionHandler.Deliver)
			})
		})
	})
	return r
}
