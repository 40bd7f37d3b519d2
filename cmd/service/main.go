package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/prime-compute-service/internal/config"
	httphandler "github.com/kjstillabower/prime-compute-service/internal/http"
	"github.com/kjstillabower/prime-compute-service/internal/lifecycle"
	"github.com/kjstillabower/prime-compute-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	state := lifecycle.NewState()
	handler := httphandler.NewHandler(state, cfg.AppVersion, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
		logger.Info("rate limiter enabled", zap.Int("rps", cfg.RateLimitRPS), zap.Int("burst", cfg.RateLimitBurst))
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/healthz", handler.GetHealth).Methods("GET")
	router.HandleFunc("/readyz", handler.GetReady).Methods("GET")
	router.HandleFunc("/version", handler.GetVersion).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	computeRouter := router.PathPrefix("/compute").Subrouter()
	computeRouter.Use(httphandler.RateLimitMiddleware(limiter))
	computeRouter.HandleFunc("", handler.PostCompute).Methods("POST")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Warm-up happens before the listener binds, so there is no reachable
	// window where /readyz would report not ready during normal startup.
	logger.Info("starting up", zap.Duration("ready_delay", cfg.ReadyDelay))
	time.Sleep(cfg.ReadyDelay)
	state.SetReady(true)
	logger.Info("application ready to serve traffic", zap.String("addr", srv.Addr), zap.String("version", cfg.AppVersion))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	// Restore default signal disposition: a second SIGINT/SIGTERM during the
	// drain window terminates the process immediately.
	stop()

	logger.Info("received shutdown signal, starting graceful shutdown")
	state.SetShuttingDown(true)

	// Probes now answer 503; hold the listener open so the load balancer can
	// observe the failing readiness checks and stop routing traffic here.
	time.Sleep(cfg.ShutdownDelay)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if inFlight := httphandler.InFlightCount(); inFlight > 0 {
		logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
		waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer waitCancel()
		if err := httphandler.WaitForInFlight(waitCtx, 50*time.Millisecond); err != nil {
			logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
		}
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
