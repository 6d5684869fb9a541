package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AllowedOrigin string
	Env           string
	LogLevel      slog.Level
}

func NewRouter(
	JWTService jwt.Service,
	payrollHandler PayrollHandler,
	loanHandler LoanHandler,
	advanceHandler AdvanceHandler,
	opts RouterOptions,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-cmlabs"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.AllowedOrigin},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)

		r.Route("/payroll", func(r chi.Router) {
			r.Route("/components", func(r chi.Router) {
				r.Get("/", payrollHandler.ListComponents)
				r.Get("/{id}", payrollHandler.GetComponent)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/", payrollHandler.CreateComponent)
					r.Put("/{id}", payrollHandler.UpdateComponent)
					r.Delete("/{id}", payrollHandler.DeleteComponent)
				})
			})

			r.Route("/profiles/{employeeID}", func(r chi.Router) {
				r.Get("/", payrollHandler.GetSalaryProfile)
				r.With(middleware.RequireManager).Put("/", payrollHandler.UpsertSalaryProfile)
			})

			r.Route("/runs", func(r chi.Router) {
				r.Get("/", payrollHandler.ListRuns)
				r.With(middleware.RequireManager).Post("/generate", payrollHandler.GenerateRun)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetRun)
					r.Get("/export", payrollHandler.ExportRun)
					r.Get("/items/{itemID}/payslip", payrollHandler.DownloadPayslip)

					// Manager only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Post("/submit", payrollHandler.SubmitRun)
						r.Post("/reject", payrollHandler.RejectRun)
						r.Post("/approve", payrollHandler.ApproveRun)
						r.Post("/items/{itemID}/mark-paid", payrollHandler.MarkItemPaid)
					})
				})
			})
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/", loanHandler.List)
			r.Post("/", loanHandler.Create)
			r.Get("/{id}", loanHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/{id}/approve", loanHandler.Approve)
				r.Post("/{id}/reject", loanHandler.Reject)
				r.Post("/{id}/repay", loanHandler.Repay)
			})
		})

		r.Route("/salary-advances", func(r chi.Router) {
			r.Get("/", advanceHandler.List)
			r.Post("/", advanceHandler.Create)
			r.Get("/{id}", advanceHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/{id}/approve", advanceHandler.Approve)
				r.Post("/{id}/reject", advanceHandler.Reject)
			})
		})
	})
	return r
}
