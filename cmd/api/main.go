package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/docstream/internal/adapters/http"
	"github.com/kirillkom/docstream/internal/bootstrap"
	"github.com/kirillkom/docstream/internal/config"
	"github.com/kirillkom/docstream/internal/observability/logging"
	"github.com/kirillkom/docstream/internal/observability/metrics"
)

const serviceName = "docstream-api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)
	router := httpadapter.NewRouter(
		app.IngestUC,
		app.Repo,
		app.PipelineUC,
		app.Storage,
		app.Report,
		httpadapter.RouterConfig{
			RateLimitRPS:        cfg.RateLimitRPS,
			RateLimitBurst:      cfg.RateLimitBurst,
			MaxInFlight:         cfg.MaxInFlight,
			DefaultChunkPages:   cfg.ChunkPages,
			DefaultChunkOverlap: cfg.ChunkOverlap,
			FallbackAPIKey:      cfg.FallbackAPIKey,
			FallbackModel:       cfg.FallbackModel,
		},
	).WithMetrics(serverMetrics, serviceName).Handler()

	mux := http.NewServeMux()
	mux.Handle("/metrics", serverMetrics.Handler())
	mux.Handle("/", serverMetrics.Middleware(serviceName, router))

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
