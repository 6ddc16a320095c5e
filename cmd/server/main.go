package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"verso/internal/config"
	"verso/internal/db"
	"verso/internal/handler"
	transport "verso/internal/http"
	"verso/internal/logger"
	"verso/internal/network"
	"verso/internal/repository"
	"verso/internal/service"
	"verso/internal/service/ai"
	"verso/internal/snowflake"
	"verso/internal/tracking"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})
	logger.Info("starting", "module", "main", "action", "start", "resource", "process", "result", "ok", "app", config.AppName, "version", config.AppVersion, "env", cfg.Env, "store", cfg.Store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fatal("open store", err)
	}

	clients := network.NewClientFactory(network.StaticProxy(cfg.HTTPProxy))

	sink, err := tracking.NewSink(cfg.Tracking.URI, clients.NewHTTPClient(ctx, 30*time.Second))
	if err != nil {
		fatal("tracking sink", err)
	}
	recorder := tracking.NewRecorder(sink, cfg.Tracking.QueueSize)

	translator := service.NewTranslatorService(service.TranslatorConfig{
		Provider: ai.Config{
			Provider:   cfg.Model.Provider,
			APIKey:     cfg.Model.APIKey,
			BaseURL:    cfg.Model.BaseURL,
			Model:      cfg.Model.Name,
			Timeout:    cfg.Model.Timeout,
			HTTPClient: clients.NewHTTPClient(ctx, cfg.Model.Timeout),
		},
		Experiment: cfg.Tracking.Experiment,
		StripHTML:  cfg.Model.StripHTML,
	}, ai.NewProvider, ai.NewRateLimiter(cfg.Model.QPS), recorder)

	if err := loadModel(ctx, translator, cfg.Model.Timeout); err != nil {
		fatal("load model", err)
	}

	translations := service.NewTranslationService(repo, translator, cfg.DefaultTargetLanguage)
	router := transport.NewRouter(
		handler.NewTranslationHandler(translations, cfg.Production()),
		handler.NewHealthHandler(translations),
		cfg.StaticDir,
	)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http listening", "module", "main", "action", "start", "resource", "http", "result", "ok", "addr", cfg.Addr)
		if err := router.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", "module", "main", "action", "stop", "resource", "process", "result", "ok")
	case err := <-serverErr:
		logger.Error("http server failed", "module", "main", "action", "start", "resource", "http", "result", "failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "module", "main", "action", "stop", "resource", "http", "result", "failed", "error", err)
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Warn("tracking drain", "module", "main", "action", "stop", "resource", "tracking", "result", "failed", "error", err, "dropped", recorder.Dropped())
	}
	if err := closeStore(shutdownCtx); err != nil {
		logger.Warn("store close", "module", "main", "action", "stop", "resource", "store", "result", "failed", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (repository.TranslationRepository, func(context.Context) error, error) {
	switch cfg.Store {
	case config.StoreMongo:
		client, coll, err := db.OpenMongo(ctx, db.MongoConfig{
			URL:        cfg.MongoURL,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("store connected", "module", "main", "action", "start", "resource", "store", "result", "ok", "store", cfg.Store, "database", coll.Database().Name(), "collection", coll.Name())
		return repository.NewMongoTranslationRepository(coll), client.Disconnect, nil
	case config.StoreSQLite:
		ids, err := snowflake.New(cfg.SnowflakeNode)
		if err != nil {
			return nil, nil, err
		}
		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("store connected", "module", "main", "action", "start", "resource", "store", "result", "ok", "store", cfg.Store, "path", cfg.DBPath)
		return repository.NewSQLiteTranslationRepository(conn, ids), func(context.Context) error { return conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func loadModel(ctx context.Context, translator service.TranslatorService, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return translator.Load(ctx)
}

func fatal(msg string, err error) {
	logger.Error(msg, "module", "main", "action", "start", "resource", "process", "result", "failed", "error", err)
	os.Exit(1)
}
