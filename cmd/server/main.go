package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/config"
	"github.com/mamadbah2/feedlot/internal/repository"
	"github.com/mamadbah2/feedlot/internal/repository/memory"
	"github.com/mamadbah2/feedlot/internal/repository/mongodb"
	"github.com/mamadbah2/feedlot/internal/repository/sheets"
	"github.com/mamadbah2/feedlot/internal/scheduler"
	"github.com/mamadbah2/feedlot/internal/server/handlers"
	"github.com/mamadbah2/feedlot/internal/server/router"
	batchsvc "github.com/mamadbah2/feedlot/internal/service/batches"
	feedingsvc "github.com/mamadbah2/feedlot/internal/service/feeding"
	readingsvc "github.com/mamadbah2/feedlot/internal/service/readings"
	reportingsvc "github.com/mamadbah2/feedlot/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/feedlot/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/feedlot/pkg/clients/whatsapp"
	"github.com/mamadbah2/feedlot/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := openStore(context.Background(), cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	if cfg.Store.SeedFile != "" {
		data, err := repository.LoadSeedFile(context.Background(), cfg.Store.SeedFile, store)
		if err != nil {
			baseLogger.Fatal("failed to load seed file", zap.String("path", cfg.Store.SeedFile), zap.Error(err))
		}
		baseLogger.Info("seed data loaded",
			zap.Int("lots", len(data.Lots)),
			zap.Int("diets", len(data.Diets)),
			zap.Int("ingredients", len(data.Ingredients)))
	}

	var messagingSvc whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, logger.Named(baseLogger, "svc.whatsapp"))
		baseLogger.Info("whatsapp operator notifications enabled")
	} else {
		messagingSvc = whatsappsvc.NewNopService(logger.Named(baseLogger, "svc.whatsapp"))
		baseLogger.Warn("whatsapp access token missing, operator notifications disabled")
	}

	var journal sheets.Journal = sheets.NopJournal{}
	if cfg.Sheets.Enabled() {
		sheetsWriter, err := sheets.NewGoogleSheetWriter(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets writer", zap.Error(err))
		}
		journal = sheets.NewSheetJournal(sheetsWriter)
		baseLogger.Info("spreadsheet journal enabled")
	}

	readingSvc := readingsvc.NewService(store, store, messagingSvc, cfg.Engine, logger.Named(baseLogger, "svc.readings"))
	feedingSvc := feedingsvc.NewService(store, store, store, journal, logger.Named(baseLogger, "svc.feeding"))
	batchSvc := batchsvc.NewService(store, store, store, store, messagingSvc, journal, logger.Named(baseLogger, "svc.batches"))
	reportingSvc := reportingsvc.NewService(store, store, store, logger.Named(baseLogger, "svc.reporting"))

	engine := router.New(router.Handlers{
		Readings: handlers.NewReadingHandler(readingSvc, logger.Named(baseLogger, "handlers.readings")),
		Plans:    handlers.NewPlanHandler(feedingSvc, batchSvc, logger.Named(baseLogger, "handlers.plans")),
		Batches:  handlers.NewBatchHandler(batchSvc, logger.Named(baseLogger, "handlers.batches")),
		Reports:  handlers.NewReportHandler(reportingSvc, messagingSvc, logger.Named(baseLogger, "handlers.reports")),
	}, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(cfg.Schedule, feedingSvc, reportingSvc, messagingSvc, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, base *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		base.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	default:
		return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named(base, "repo.mongodb"))
	}
}
