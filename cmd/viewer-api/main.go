package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/config"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/db/driver"
	logpkg "github.com/wilfordwoodruff/recommend-streamlit/internal/logger"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/metrics"
	corpusrepo "github.com/wilfordwoodruff/recommend-streamlit/internal/repository/corpus"
	neighborrepo "github.com/wilfordwoodruff/recommend-streamlit/internal/repository/neighbor"
	snapshotrepo "github.com/wilfordwoodruff/recommend-streamlit/internal/repository/snapshot"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/textproc"
	chiTransport "github.com/wilfordwoodruff/recommend-streamlit/internal/transport/chi"
	healthuc "github.com/wilfordwoodruff/recommend-streamlit/internal/usecase/health"
	lookupuc "github.com/wilfordwoodruff/recommend-streamlit/internal/usecase/lookup"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/version"
)

func main() {
	configPath := flag.String("config", "", "config file (default config/<ENV>.yaml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Load configuration based on ENV
	env := config.GetEnv()

	var cfg config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := cfg.ValidateHTTP(); err != nil {
		panic("invalid http config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting viewer API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus", cfg.Corpus.Path),
		zap.String("snapshot_dir", cfg.Snapshot.Dir),
		zap.String("store_driver", cfg.Publish.Driver),
	)

	ctx := context.Background()

	lookupSvc := lookupuc.New(
		corpusrepo.NewLoader(cfg.Corpus.Path),
		snapshotrepo.New(cfg.Snapshot.Dir),
		textproc.NewNormalizer(cfg.Pipeline.ExtraBlacklist...),
		cfg.FacetList(),
	)

	// Pass nil interface (not typed nil pointer!) when no store is configured.
	var pinger healthuc.StorePinger
	if cfg.Publish.Driver != "" {
		store, err := driver.Open(ctx, driver.Config{
			Driver:           cfg.Publish.Driver,
			Addrs:            cfg.Publish.Addrs,
			Password:         cfg.Publish.Password,
			SQLitePath:       cfg.Publish.SQLitePath,
			ReadinessTimeout: time.Duration(cfg.Publish.ReadinessTimeout) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to open neighbor store", zap.Error(err))
		}
		defer store.Close()
		lookupSvc.WithNeighborSource(neighborrepo.New(store, cfg.Publish.KeyPrefix))
		pinger = store
		logger.Info("Connected to neighbor store")
	}

	// A missing snapshot keeps the server up but unhealthy until the next reload.
	if err := lookupSvc.Reload(); err != nil {
		logger.Warn("Initial load failed", zap.Error(err))
	} else {
		logger.Info("Snapshots loaded", zap.Int("entries", len(lookupSvc.IDs())))
	}

	healthSvc := healthuc.New(lookupSvc, pinger)
	server := chiTransport.NewServer(lookupSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.HTTP.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown; SIGHUP re-reads corpus and snapshots.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

wait:
	for {
		select {
		case <-hup:
			if err := lookupSvc.Reload(); err != nil {
				logger.Error("Reload failed, serving previous data", zap.Error(err))
				continue
			}
			logger.Info("Reloaded", zap.Int("entries", len(lookupSvc.IDs())))
		case <-quit:
			break wait
		}
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
