package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/justinschembri/isprs/internal/adapter/http"
	kafkaadapter "github.com/justinschembri/isprs/internal/adapter/kafka"
	"github.com/justinschembri/isprs/internal/adapter/vs30"
	"github.com/justinschembri/isprs/internal/config"
	"github.com/justinschembri/isprs/internal/gmpe"
	"github.com/justinschembri/isprs/internal/gmpe/bssa13"
	"github.com/justinschembri/isprs/internal/observability"
	"github.com/justinschembri/isprs/internal/parser"
	"github.com/justinschembri/isprs/internal/pipeline"
	"github.com/justinschembri/isprs/internal/structure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	model := bssa13.NewDefault()
	evaluator := gmpe.NewEvaluator(model)
	table := bssa13.DefaultTable()

	// Site-conditions lookup is feature-flagged via VS30_SERVICE_URL.
	var provider pipeline.Vs30Provider
	if cfg.Vs30Enabled {
		client := vs30.NewClient(cfg.Vs30ServiceURL, cfg.Vs30Timeout, logger, metrics)
		provider = vs30.NewCachedProvider(client, cfg.Vs30CacheSize, metrics)
		metrics.Vs30Enabled.Set(1)
		logger.Info("vs30 lookup enabled", "url", cfg.Vs30ServiceURL, "cache_size", cfg.Vs30CacheSize)
	} else {
		logger.Info("vs30 lookup disabled", "default_vs30", cfg.DefaultVS30)
	}

	defaults := pipeline.SiteDefaults{
		StructureType:  structure.StructureType(cfg.StructureType),
		BuildingHeight: cfg.BuildingHeight,
		VS30:           cfg.DefaultVS30,
		Fault:          gmpe.FaultType(cfg.FaultType),
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewRecordTransformer(parser.CSMIPV2LineMap(), evaluator, table, provider, defaults, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, evaluator, table, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
