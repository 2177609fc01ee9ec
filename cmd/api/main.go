package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_intel_backend/internal/events"
	apphttp "lead_intel_backend/internal/http"
	"lead_intel_backend/internal/http/router"
	"lead_intel_backend/internal/leads"
	"lead_intel_backend/internal/leads/handler"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/internal/scheduler"
	"lead_intel_backend/platform/config"
	"lead_intel_backend/platform/db"
	"lead_intel_backend/platform/logger"
	"lead_intel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	archiver := initArchiver(ctx, cfg, log)

	ingestClient, closeIngestClient := initIngestClient(cfg, log)
	if closeIngestClient != nil {
		defer closeIngestClient()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule, closeNotifications := initNotifications(cfg, log)
	if closeNotifications != nil {
		defer closeNotifications()
	}
	notificationModule.RegisterHandlers(eventBus)

	leadService, err := leads.NewService(repository.New(pool), eventBus, val, cfg, log, serviceOptions(archiver)...)
	if err != nil {
		log.Error("failed to initialize leads service", "error", err)
		panic("failed to initialize leads service: " + err.Error())
	}

	var enqueuer handler.IngestEnqueuer
	if ingestClient != nil {
		enqueuer = ingestClient
	}
	leadsModule := leads.NewModule(leadService, val, enqueuer)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.RunWorker {
		worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), log)
		if err != nil {
			log.Error("failed to initialize ingest worker", "error", err)
			panic("failed to initialize ingest worker: " + err.Error())
		}
		g.Go(func() error {
			log.Info("ingest worker started", "queue", cfg.GetAsynqQueueName())
			worker.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		notificationModule.Stream().Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
	log.Info("server stopped")
}
