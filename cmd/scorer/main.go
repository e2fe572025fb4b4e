package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/config"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/db/driver"
	logpkg "github.com/wilfordwoodruff/recommend-streamlit/internal/logger"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/metrics"
	corpusrepo "github.com/wilfordwoodruff/recommend-streamlit/internal/repository/corpus"
	neighborrepo "github.com/wilfordwoodruff/recommend-streamlit/internal/repository/neighbor"
	snapshotrepo "github.com/wilfordwoodruff/recommend-streamlit/internal/repository/snapshot"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/textproc"
	scoringuc "github.com/wilfordwoodruff/recommend-streamlit/internal/usecase/scoring"
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

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, env, logger); err != nil {
		logger.Error("scoring failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, env string, logger *zap.Logger) error {
	logger.Info("Starting scorer",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("corpus", cfg.Corpus.Path),
		zap.Strings("facets", cfg.Pipeline.Facets),
		zap.Float64("quantile", cfg.Pipeline.Quantile),
		zap.String("publish_driver", cfg.Publish.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	metrics.RegisterPipelineMetrics()

	svc := scoringuc.New(
		corpusrepo.NewLoader(cfg.Corpus.Path),
		snapshotrepo.New(cfg.Snapshot.Dir),
		textproc.NewNormalizer(cfg.Pipeline.ExtraBlacklist...),
		textproc.NewEnglishTokenizer(),
		scoringuc.Options{
			Quantile:  cfg.Pipeline.Quantile,
			Facets:    cfg.FacetList(),
			DudBackup: cfg.Pipeline.DudBackup,
		},
	).WithRecorder(metrics.NewPipeline())

	if cfg.Publish.Driver != "" {
		store, err := driver.Open(ctx, storeConfig(cfg.Publish))
		if err != nil {
			return err
		}
		defer store.Close()
		svc.WithPublisher(neighborrepo.New(store, cfg.Publish.KeyPrefix))
		logger.Info("Publishing records", zap.String("driver", cfg.Publish.Driver))
	}

	report, err := svc.Run(ctx)
	if cfg.Metrics.Textfile != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.Warn("metrics textfile not written", zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	for _, fr := range report.Facets {
		logger.Info("Snapshot written",
			zap.String("facet", fr.Facet.String()),
			zap.String("file", snapshotrepo.New(cfg.Snapshot.Dir).Path(fr.Facet)),
			zap.Int("documents", fr.Documents),
			zap.Int("duds", len(fr.Duds)),
		)
	}
	return nil
}

func storeConfig(cfg config.PublishConfig) driver.Config {
	return driver.Config{
		Driver:           cfg.Driver,
		Addrs:            cfg.Addrs,
		Password:         cfg.Password,
		SQLitePath:       cfg.SQLitePath,
		ReadinessTimeout: time.Duration(cfg.ReadinessTimeout) * time.Second,
	}
}
