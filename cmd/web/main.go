package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"nexus-analytics/internal/config"
	"nexus-analytics/internal/middleware"
	"nexus-analytics/internal/observability"
	"nexus-analytics/internal/server"
	"nexus-analytics/internal/services"
	"nexus-analytics/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	generatorDefaults, err := cfg.Generator.Params()
	if err != nil {
		logger.Error("invalid generator configuration", "error", err)
		os.Exit(1)
	}

	analytics := services.NewAnalytics(logger)
	analytics.SetRowCap(cfg.Data.MaxUploadRows)

	if cfg.Data.CSVFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
		err := analytics.LoadFromCSV(ctx, cfg.Data.CSVFile)
		cancel()
		if err != nil {
			logger.Error("failed to load CSV data", "error", err, "file", cfg.Data.CSVFile)
			os.Exit(1)
		}
	} else {
		count := analytics.GenerateDemo(generatorDefaults)
		logger.Info("demo dataset generated", "records", count, "seed", generatorDefaults.Seed)
	}

	templateHandlers := &server.TemplateHandlers{Dashboard: handleDashboard}
	srv := server.NewServer(analytics, generatorDefaults, cfg.Data.MaxUploadBytes, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("analytics service stopped")
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
