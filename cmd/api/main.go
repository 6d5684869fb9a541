package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/payroll-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/postgresql"
	advanceService "github.com/cmlabs-hris/payroll-backend-go/internal/service/advance"
	loanService "github.com/cmlabs-hris/payroll-backend-go/internal/service/loan"
	payrollService "github.com/cmlabs-hris/payroll-backend-go/internal/service/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/payslip"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	slog.SetLogLoggerLevel(logLevel)

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	transactor := postgresql.NewTransactor(db)
	componentRepo := postgresql.NewSalaryComponentRepository(db)
	runRepo := postgresql.NewPayrollRunRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	loanRepo := postgresql.NewLoanRepository(db)
	advanceRepo := postgresql.NewAdvanceRepository(db)

	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to redis:", err)
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		slog.Info("payroll run locks backed by redis", "addr", cfg.Redis.Addr)
	} else {
		locker = lock.NewLocalLocker()
		slog.Warn("REDIS_ADDR not set, payroll run locks are local to this instance")
	}

	var attendance payroll.AttendanceDeductionSource
	if cfg.Payroll.AttendanceSource == config.AttendanceSourceTable {
		attendance = postgresql.NewAttendanceDeductionSource(db)
	}

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
	default:
		log.Fatal("Unsupported storage types: ", cfg.Storage.Type)
	}

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service:", err)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	notifier := payslip.NewNotifier(fileStorage, emailService)
	payrollSvc := payrollService.NewPayrollService(
		transactor,
		locker,
		componentRepo,
		runRepo,
		employeeRepo,
		loanRepo,
		advanceRepo,
		attendance,
		notifier,
		cfg.Payroll.TxTimeout,
	)
	loanSvc := loanService.NewLoanService(loanRepo, employeeRepo, emailService)
	advanceSvc := advanceService.NewAdvanceService(advanceRepo, employeeRepo, emailService)

	router := appHTTP.NewRouter(
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewLoanHandler(loanSvc),
		appHTTP.NewAdvanceHandler(advanceSvc),
		appHTTP.RouterOptions{
			AllowedOrigin: cfg.App.FrontendURL,
			Env:           cfg.App.Env,
			LogLevel:      logLevel,
		},
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("payroll engine started",
		"port", cfg.App.Port,
		"env", cfg.App.Env,
		"attendance_source", cfg.Payroll.AttendanceSource,
	)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
