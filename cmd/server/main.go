package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/config"
	"github.com/mamadbah2/wacloud/internal/repository"
	"github.com/mamadbah2/wacloud/internal/repository/memory"
	"github.com/mamadbah2/wacloud/internal/repository/mongodb"
	"github.com/mamadbah2/wacloud/internal/repository/postgres"
	"github.com/mamadbah2/wacloud/internal/repository/sheets"
	"github.com/mamadbah2/wacloud/internal/scheduler"
	"github.com/mamadbah2/wacloud/internal/server/handlers"
	"github.com/mamadbah2/wacloud/internal/server/router"
	"github.com/mamadbah2/wacloud/internal/service/messages"
	reportingsvc "github.com/mamadbah2/wacloud/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/wacloud/internal/service/whatsapp"
	"github.com/mamadbah2/wacloud/pkg/logger"
	"github.com/mamadbah2/wacloud/pkg/whatsapp"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store, logger.Named(baseLogger, "repo.messages"))
	if err != nil {
		baseLogger.Fatal("failed to init message store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	var sheetsRepo sheets.Repository
	if cfg.SheetsEnabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		if err := repo.EnsureDigestHeader(ctx); err != nil {
			baseLogger.Warn("failed to prepare digest sheet", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Info("google sheets not configured, digest export disabled")
	}

	whatsClient := whatsapp.NewClient(whatsapp.Config{
		AccessToken:   cfg.WhatsApp.AccessToken,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		BaseURL:       cfg.WhatsApp.BaseURL,
		APIVersion:    cfg.WhatsApp.APIVersion,
		OnError:       whatsappsvc.OnAPIError(logger.Named(baseLogger, "client.whatsapp")),
	})

	recorder := messages.NewRecorder(store, messages.RSVPPayloads{
		Approve: cfg.RSVP.ApprovePayload,
		Decline: cfg.RSVP.DeclinePayload,
	}, logger.Named(baseLogger, "svc.messages"))

	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, cfg.Batch, whatsClient, recorder, store, logger.Named(baseLogger, "svc.whatsapp"))
	reportingSvc := reportingsvc.NewService(store, sheetsRepo, logger.Named(baseLogger, "svc.reporting"))

	engine := router.New(router.Handlers{
		Webhook: handlers.NewWebhookHandler(messagingSvc, logger.Named(baseLogger, "handlers.webhook")),
		Message: handlers.NewMessageHandler(messagingSvc, logger.Named(baseLogger, "handlers.messages")),
		Preview: handlers.NewPreviewHandler(logger.Named(baseLogger, "handlers.preview")),
	}, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, messagingSvc, logger.Named(baseLogger, "scheduler"))
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

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
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

// openStore connects the configured message store and prepares its schema.
// The returned func releases the connection.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (repository.MessageStore, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewMessageRepository(pool, log)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case config.DriverMongoDB:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(context.Background())
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(context.Background()); err != nil {
				log.Error("failed to close mongodb connection", zap.Error(err))
			}
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory message store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}
