package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gearswap/marketplace/internal/config"
	"github.com/gearswap/marketplace/internal/engine"
	"github.com/gearswap/marketplace/internal/handler"
	"github.com/gearswap/marketplace/internal/service"
	"github.com/gearswap/marketplace/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Instantiate stores.
	memberStore := store.NewMemberStore()
	listingStore := store.NewListingStore()
	matchStore := store.NewMatchStore()
	webhookStore := store.NewWebhookStore()

	// Engine.
	settings := engine.NewSettings(cfg.MatchingEnabled, cfg.AutoMatching, cfg.MatchingInterval)
	index := engine.NewCandidateIndex()
	dispatcher := engine.NewDispatcher(cfg.DispatchQueueSize, logger)

	// Notifier (needed by the reconciler and lifecycle manager).
	webhookSvc := service.NewWebhookService(webhookStore, memberStore, cfg.WebhookTimeout, logger)

	weights := engine.ScoreWeights{
		QuantityFit: cfg.ScoreWeightQuantity,
		Reputation:  cfg.ScoreWeightReputation,
		Recency:     cfg.ScoreWeightRecency,
	}
	reconciler := engine.NewReconciler(
		index, listingStore, matchStore, memberStore,
		settings, webhookSvc, logger,
		weights, cfg.RecencyHorizon, cfg.ConfirmTimeout,
	)
	lifecycle := engine.NewLifecycle(index, listingStore, matchStore, webhookSvc, logger)
	sweep := engine.NewSweep(settings, listingStore, matchStore, lifecycle, reconciler, dispatcher, logger)

	// Services.
	memberSvc := service.NewMemberService(memberStore)
	listingSvc := service.NewListingService(listingStore, memberStore, index, reconciler, lifecycle, dispatcher, settings)
	matchSvc := service.NewMatchService(matchStore, memberStore, lifecycle, dispatcher)

	// Router.
	router := handler.NewRouter(memberSvc, listingSvc, matchSvc, webhookSvc, settings, sweep, index, logger)

	// Start the sweep goroutine with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweep.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, stop the sweep, then drain
	// the bucket workers so no reconciliation is cut off mid-pass.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	dispatcher.Stop()

	logger.Info("server stopped")
}
