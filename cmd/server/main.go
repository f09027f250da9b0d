package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"order-console/internal/app"
	"order-console/internal/config"
	"order-console/internal/logger"
	"order-console/internal/metrics"
	"order-console/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.Log)
	metrics.Register()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start")
	}
	defer a.Close()

	if err := a.EnsureAdmin(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed administrator")
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	go a.Stats.Run(workerCtx)

	srv := server.New(server.Options{
		Address:        cfg.Address,
		AllowedOrigins: cfg.AllowedOrigins(),
		DB:             a.DB,
		Tokens:         a.Tokens,
		Auth:           a.Auth,
		Profiles:       a.Profiles,
		Orders:         a.Orders,
		Webhooks:       a.Webhooks,
		Logger:         log,
	}).HTTPServer()

	done := make(chan struct{})
	go gracefulShutdown(srv, a, log, done)

	log.WithField("address", cfg.Address).Info("order console listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("http server error")
	}

	<-done
	log.Info("graceful shutdown complete")
}

// gracefulShutdown stops accepting requests on SIGINT/SIGTERM, then waits for
// in-flight webhook fan-outs before letting main close the database.
func gracefulShutdown(srv *http.Server, a *app.App, log logrus.FieldLogger, done chan<- struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if err := a.Dispatcher.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("abandoned in-flight webhook notifications")
	}
	close(done)
}
