package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sesbridge/sesbridge/internal/adapter/email"
	sbhttp "github.com/sesbridge/sesbridge/internal/adapter/http"
	"github.com/sesbridge/sesbridge/internal/adapter/localfs"
	sbnats "github.com/sesbridge/sesbridge/internal/adapter/nats"
	"github.com/sesbridge/sesbridge/internal/adapter/otel"
	"github.com/sesbridge/sesbridge/internal/adapter/postgres"
	"github.com/sesbridge/sesbridge/internal/adapter/ristretto"
	"github.com/sesbridge/sesbridge/internal/adapter/ws"
	"github.com/sesbridge/sesbridge/internal/config"
	"github.com/sesbridge/sesbridge/internal/logger"
	"github.com/sesbridge/sesbridge/internal/middleware"
	"github.com/sesbridge/sesbridge/internal/port/messagequeue"
	"github.com/sesbridge/sesbridge/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	otlpEndpoint := ""
	if cfg.Telemetry.Enabled {
		otlpEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	shutdownTelemetry, err := otel.Init(ctx, cfg.Logging.Service, otlpEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	store := postgres.NewStore(pool)

	// NATS is optional: without it the workflow runs, just without
	// downstream lifecycle events.
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		q, err := sbnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unreachable, continuing without lifecycle events",
				"url", cfg.NATS.URL, "error", err)
		} else {
			defer func() { _ = q.Drain() }()
			queue = q
			slog.Info("nats connected", "url", cfg.NATS.URL)
		}
	}

	l1, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	files, err := localfs.New(cfg.Uploads.Root, cfg.Uploads.SofficePath)
	if err != nil {
		return fmt.Errorf("filestore: %w", err)
	}

	mailer := email.NewNotifier(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Password: cfg.SMTP.Password,
	})

	hub := ws.NewHub()

	// --- Services ---
	authSvc := service.NewAuthService(store, &cfg.Auth)
	companySvc := service.NewCompanyService(store, l1, &cfg.Cache)
	authzSvc := service.NewAuthzService(companySvc, metrics)
	userSvc := service.NewUserService(store, authSvc)
	talentSvc := service.NewTalentService(store, files)
	oppSvc := service.NewOpportunityService(store)
	requestSvc := service.NewRequestService(store, queue, hub, metrics)

	notifSvc := service.NewNotificationService(store, queue, mailer)
	if err := notifSvc.Start(ctx); err != nil {
		return fmt.Errorf("notification subscriber: %w", err)
	}
	defer notifSvc.Stop()

	// --- HTTP ---
	rl := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := rl.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	handlers := &sbhttp.Handlers{
		Auth:          authSvc,
		Authz:         authzSvc,
		Companies:     companySvc,
		Users:         userSvc,
		Talents:       talentSvc,
		Opportunities: oppSvc,
		Requests:      requestSvc,
		Hub:           hub,
		UploadsDir:    files.Root(),
		Ready:         pool.Ping,
	}

	r := chi.NewRouter()
	r.Use(sbhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(sbhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(sbhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(rl.Handler)
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(middleware.Auth(authSvc, cfg.Server.LoginPath))

	sbhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
