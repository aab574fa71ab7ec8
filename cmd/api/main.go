package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"callbooker/internal/audit"
	"callbooker/internal/auth"
	"callbooker/internal/availability"
	"callbooker/internal/booking"
	"callbooker/internal/calendar"
	"callbooker/internal/config"
	"callbooker/internal/httpapi"
	"callbooker/internal/links"
	"callbooker/internal/mirror"
	"callbooker/internal/reporting"
	"callbooker/internal/settings"
	"callbooker/pkg/logger"
	"callbooker/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := booking.Migrate(rootCtx, db); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	settingsStore, err := settings.NewStore(rootCtx, settings.NewPostgresSource(db))
	if err != nil {
		log.Error("settings load failed", "err", err)
		os.Exit(1)
	}

	gateway := calendarGateway(cfg, log)
	repo := booking.NewPostgresRepo(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	worker := mirror.NewWorker(repo, gateway, auditSvc, mirror.Options{
		Timeout:     cfg.Calendar.Timeout,
		MaxAttempts: cfg.Jobs.MirrorMaxAttempts,
	})

	deps := booking.Deps{
		Repo:           repo,
		Settings:       settingsStore,
		Calendar:       gateway,
		Mirror:         worker,
		Audit:          auditSvc,
		GatewayTimeout: cfg.Calendar.Timeout,
	}
	if cfg.Booking.LeaseTTL > 0 {
		deps.Locker = booking.NewRedisLease(rdb, cfg.Booking.LeaseTTL)
	}

	h := httpapi.Handlers{
		Booking:             booking.NewCoordinator(deps),
		AvailabilityService: availability.NewService(repo, settingsStore),
		Directory:           repo,
		Links:               links.NewSigner([]byte(cfg.Links.SigningSecret), time.Now),
		LinkTTL:             cfg.Links.SupportTTL,
		Reports:             reporting.NewService(repo),
		Ping: func(ctx context.Context) error {
			if err := utils.HealthCheck(ctx, db, time.Second); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	}

	// Background jobs: settings refresh and calendar mirror sweep.
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelInfo))
	jobs := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog)))
	if _, err := settingsStore.Schedule(jobs, cfg.Jobs.SettingsRefresh, 5*time.Second); err != nil {
		log.Error("settings refresh schedule failed", "err", err)
		os.Exit(1)
	}
	if _, err := worker.Schedule(jobs, cfg.Jobs.MirrorSweep, cronLog); err != nil {
		log.Error("mirror sweep schedule failed", "err", err)
		os.Exit(1)
	}
	jobs.Start()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Wait for a running sweep to finish before closing the pools.
	select {
	case <-jobs.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("background jobs did not stop in time")
	}
}

// calendarGateway builds the free/busy and event gateway. Local runs without a
// Google token get an in-memory calendar; published ICS feeds are always
// consulted in addition to the primary calendar.
func calendarGateway(cfg config.Config, log *slog.Logger) calendar.Gateway {
	var primary calendar.Gateway
	if cfg.UsesCalendarStub() {
		log.Warn("CALENDAR_API_TOKEN not set; using in-memory calendar")
		primary = calendar.NewMemoryGateway()
	} else {
		primary = calendar.NewGoogleClient(cfg.Calendar.BaseURL, cfg.Calendar.Token, cfg.Calendar.Timeout)
	}
	if len(cfg.Calendar.ICSFeeds) == 0 {
		return primary
	}
	return calendar.Composite{
		Primary: primary,
		Extra:   []calendar.FreeBusy{calendar.NewICSFeed(cfg.Calendar.ICSFeeds, cfg.Calendar.Timeout)},
	}
}
