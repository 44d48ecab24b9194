package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dishom/opsboard/internal/api/handlers"
	"github.com/dishom/opsboard/internal/api/router"
	"github.com/dishom/opsboard/internal/config"
	"github.com/dishom/opsboard/internal/domain/metric"
	"github.com/dishom/opsboard/internal/livefeed"
	"github.com/dishom/opsboard/internal/metricsource"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/validator"
	"github.com/dishom/opsboard/internal/repository/postgres"
	"github.com/dishom/opsboard/internal/services"
	"github.com/dishom/opsboard/internal/worker"
	"github.com/dishom/opsboard/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database: " + err.Error())
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.FS()); err != nil {
		log.Fatal("Failed to run migrations: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metric sources come from whichever optional domain tables exist.
	registry := metric.NewRegistry()
	if err := metricsource.RegisterAll(ctx, db, cfg.Database.Driver, registry, log); err != nil {
		log.Fatal("Failed to register metric sources: " + err.Error())
	}

	hub := livefeed.NewHub(cfg.Engine.FeedBufferSize, log)
	defer hub.Close()

	auditRepo := postgres.NewAuditRepository(db)
	ruleRepo := postgres.NewRuleRepository(db)
	incidentRepo := postgres.NewIncidentRepository(db)

	auditSvc := services.NewAuditService(auditRepo, hub, log,
		cfg.Engine.SnapshotByteBudget, cfg.Engine.RetentionDays)
	ruleSvc := services.NewRuleService(ruleRepo, registry, log)
	incidentSvc := services.NewIncidentService(incidentRepo, log)
	evaluatorSvc := services.NewEvaluatorService(ruleRepo, incidentRepo, registry, hub, log,
		cfg.Engine.SourceQueryTimeout)
	metricsSvc := services.NewMetricsService(registry, log, cfg.Engine.SourceQueryTimeout)
	actionsSvc := services.NewActionsService(db, cfg.Database.Driver, auditSvc, log)

	scheduler := worker.NewScheduler(evaluatorSvc, auditSvc,
		cfg.Engine.EvaluatorSchedule, cfg.Engine.RetentionSchedule, log)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler: " + err.Error())
	}

	val := validator.New()
	h := &router.Handlers{
		Health:   handlers.NewHealthHandler(db, log),
		Audit:    handlers.NewAuditHandler(auditSvc, log),
		Rule:     handlers.NewRuleHandler(ruleSvc, log, val),
		Incident: handlers.NewIncidentHandler(incidentSvc, log, val),
		Metrics:  handlers.NewMetricsHandler(metricsSvc, log),
		Actions:  handlers.NewActionsHandler(actionsSvc, log, val),
		LiveFeed: handlers.NewLiveFeedHandler(hub, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
		}).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed: " + err.Error())
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr(err, "Graceful shutdown failed")
	}
}
