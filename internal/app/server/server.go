package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"gestao/internal/domain/accounting"
	"gestao/internal/domain/attendance"
	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/employees"
	"gestao/internal/domain/payroll"
	"gestao/internal/domain/pos"
	"gestao/internal/domain/professions"
	"gestao/internal/domain/series"
	"gestao/internal/domain/settings"
	"gestao/internal/domain/settlement"
	"gestao/internal/domain/tax"
	"gestao/internal/domain/users"
	"gestao/internal/platform/cache"
	"gestao/internal/platform/config"
	cryptoutil "gestao/internal/platform/crypto"
	"gestao/internal/platform/db"
	"gestao/internal/platform/jobs"
	"gestao/internal/platform/metrics"
	"gestao/internal/platform/printing"
	accountinghandler "gestao/internal/transport/http/handlers/accounting"
	attendancehandler "gestao/internal/transport/http/handlers/attendance"
	audithandler "gestao/internal/transport/http/handlers/audit"
	authhandler "gestao/internal/transport/http/handlers/auth"
	employeeshandler "gestao/internal/transport/http/handlers/employees"
	jobshandler "gestao/internal/transport/http/handlers/jobs"
	payrollhandler "gestao/internal/transport/http/handlers/payroll"
	poshandler "gestao/internal/transport/http/handlers/pos"
	professionshandler "gestao/internal/transport/http/handlers/professions"
	serieshandler "gestao/internal/transport/http/handlers/series"
	settingshandler "gestao/internal/transport/http/handlers/settings"
	settlementhandler "gestao/internal/transport/http/handlers/settlement"
	usershandler "gestao/internal/transport/http/handlers/users"
	"gestao/internal/transport/http/middleware"
	"gestao/migrations"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Jobs   *jobs.Service
	Router http.Handler
}

// New connects the stores, prepares the schema and builds the router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	taxes, err := tax.ParseConfig(cfg.TaxConfig)
	if err != nil {
		return nil, err
	}
	accounts := accounting.Accounts{
		SalaryExpense:   cfg.SalaryExpenseAccount,
		SocialCharges:   cfg.SocialChargesAccount,
		SalariesPayable: cfg.SalariesPayableAccount,
		IRTPayable:      cfg.IRTPayableAccount,
		INSSPayable:     cfg.INSSPayableAccount,
		Cash:            cfg.CashAccount,
	}
	if err := accounts.Validate(); err != nil {
		return nil, err
	}
	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		pool.Close()
		return nil, err
	}
	local := cache.NewStore(redisClient, cfg.LocalCachePrefix)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	jobsSvc := jobs.New(pool, cfg.JobQueueSize)
	auditSvc := audit.New(pool)
	gate := middleware.Gate{Enforce: cfg.AuthRequired}
	company := printing.Company{Name: cfg.CompanyName, NIF: cfg.CompanyNIF, Address: cfg.CompanyAddress}

	usersSvc := users.NewService(users.NewStore(pool))
	authSvc := auth.NewService(usersSvc, cfg.JWTSecret, cfg.TokenTTL)

	professionsSvc := professions.NewService(professions.NewRepository(professions.NewStore(pool), local, collector.LocalWrite))
	employeesSvc := employees.NewService(employees.NewRepository(employees.NewStore(pool), local, collector.LocalWrite), crypto)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), employeesSvc)

	payrollSvc := payroll.NewService(payroll.Deps{
		Store:      payroll.NewStore(pool),
		Attendance: attendanceSvc,
		Employees:  employeesSvc,
		Tax:        taxes,
		Jobs:       jobsSvc,
		Metrics:    collector,
		Payslips:   &payroll.PayslipArchive{Company: company, Dir: cfg.StorageDir, Crypto: crypto},
	})
	settlementSvc := settlement.NewService(settlement.NewStore(pool), collector)

	seriesStore := series.NewStore(pool)
	seriesSvc := series.NewService(series.NewRepository(seriesStore, local, collector.LocalWrite), seriesStore, collector)
	finalizer := pos.NewFinalizer(seriesSvc, pos.NewStore(pool))
	settingsSvc := settings.NewService(
		settings.NewBankRepository(settings.NewBankStore(pool), local, collector.LocalWrite),
		settings.NewMetricRepository(settings.NewMetricStore(pool), local, collector.LocalWrite),
	)
	accountingSvc := accounting.NewService(accounts, payrollSvc, settlementSvc, accounting.NewStore(pool))

	if cfg.RunSeed {
		s := seeder{users: usersSvc, settlement: settlementSvc, series: seriesSvc, now: time.Now}
		if err := s.Seed(ctx, cfg); err != nil {
			_ = redisClient.Close()
			pool.Close()
			return nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMin))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(collector.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if err := local.Ping(ctx); err != nil {
			http.Error(w, "cache not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, auditSvc).RegisterRoutes(r)
		usershandler.NewHandler(usersSvc, auditSvc, gate).RegisterRoutes(r)
		professionshandler.NewHandler(professionsSvc, auditSvc, gate).RegisterRoutes(r)
		employeeshandler.NewHandler(employeesSvc, auditSvc, gate).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceSvc, auditSvc, gate).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollSvc, jobsSvc, auditSvc, gate).RegisterRoutes(r)
		settlementhandler.NewHandler(settlementSvc, middleware.NewIdempotencyStore(pool), jobsSvc, auditSvc, company, gate).RegisterRoutes(r)
		serieshandler.NewHandler(seriesSvc, auditSvc, gate).RegisterRoutes(r)
		poshandler.NewHandler(finalizer, taxes.VATRate, auditSvc, gate).RegisterRoutes(r)
		settingshandler.NewHandler(settingsSvc, auditSvc, gate).RegisterRoutes(r)
		accountinghandler.NewHandler(accountingSvc, auditSvc, gate).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, gate).RegisterRoutes(r)
		jobshandler.NewHandler(jobsSvc, gate).RegisterRoutes(r)
	})

	return &App{
		Config: cfg,
		DB:     pool,
		Redis:  redisClient,
		Jobs:   jobsSvc,
		Router: router,
	}, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves HTTP and the job worker until SIGINT/SIGTERM, then drains both
// within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", a.Config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.Jobs.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
