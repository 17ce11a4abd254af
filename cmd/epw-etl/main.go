package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/epw-weather-service/internal/adapter/catalog"
	"github.com/couchcryptid/epw-weather-service/internal/adapter/filesystem"
	httpadapter "github.com/couchcryptid/epw-weather-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/epw-weather-service/internal/adapter/kafka"
	"github.com/couchcryptid/epw-weather-service/internal/config"
	"github.com/couchcryptid/epw-weather-service/internal/observability"
	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

func main() {
	once := flag.Bool("once", false, "convert the files currently in the input directory, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outputs, err := filesystem.NewOutputWriter(cfg.OutputDir, logger)
	if err != nil {
		logger.Error("failed to prepare output directory", "error", err)
		os.Exit(1)
	}
	loader := pipeline.NewMultiLoader(pipeline.NamedLoader{Name: "filesystem", Loader: outputs})

	// Catalog is optional (CATALOG_DRIVER=none disables it).
	var stations *catalog.Catalog
	if cfg.CatalogDriver != config.CatalogNone {
		stations, err = catalog.Open(ctx, cfg.CatalogDriver, cfg.CatalogDSN, logger, metrics)
		if err != nil {
			logger.Error("failed to open catalog", "error", err)
			os.Exit(1)
		}
		defer stations.Close()
		if err := stations.Migrate(ctx); err != nil {
			logger.Error("failed to migrate catalog", "error", err)
			os.Exit(1)
		}
		loader.Add("catalog", stations)
	} else {
		logger.Info("station catalog disabled")
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader.Add("kafka", writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	clock := clockwork.NewRealClock()
	extractor := filesystem.NewDirExtractor(cfg.InputDir, logger)
	transformer := pipeline.NewTransformer(cfg.OutputFormats, clock, logger, metrics)
	p := pipeline.New(extractor, transformer, loader, logger, metrics, cfg.BatchSize, cfg.PollInterval)

	if *once {
		n, err := p.Drain(ctx)
		closeWriter(writer, logger)
		if err != nil {
			logger.Error("conversion failed", "error", err, "converted", n)
			os.Exit(1)
		}
		logger.Info("conversion complete", "converted", n)
		return
	}

	var ready httpadapter.ReadinessChecker = p
	opts := httpadapter.Options{
		Metrics:        metrics,
		CacheSize:      cfg.ConvertCacheSize,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Clock:          clock,
	}
	if stations != nil {
		ready = httpadapter.AllReady(p, stations)
		opts.Stations = stations
	}
	opts.Ready = ready
	srv := httpadapter.NewServer(cfg.HTTPAddr, opts, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeWriter(writer, logger)

	logger.Info("shutdown complete")
}

func closeWriter(w *kafkaadapter.Writer, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
