// Package app wires configuration, storage and services into one object shared
// by the binaries.
package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"order-console/internal/auth"
	"order-console/internal/config"
	"order-console/internal/database"
	"order-console/internal/domain"
	"order-console/internal/infrastructure/webhook"
	"order-console/internal/notification"
	"order-console/internal/repo"
	"order-console/internal/service"
	"order-console/internal/worker"
)

type App struct {
	DB         database.Service
	Tokens     *auth.Tokens
	Auth       service.AuthService
	Profiles   service.ProfileService
	Orders     service.OrderService
	Webhooks   service.WebhookService
	Dispatcher *notification.Dispatcher
	Stats      *worker.StatsWorker

	cfg *config.Config
	log logrus.FieldLogger
}

func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	db, err := database.NewPostgres(ctx, cfg.DB.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"host":     cfg.DB.Host,
		"database": cfg.DB.Database,
	}).Info("connected to database")

	orderRepo := repo.NewOrderRepo(db)
	profileRepo := repo.NewProfileRepo(db)
	webhookRepo := repo.NewWebhookRepo(db)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	profiles := service.NewProfileService(profileRepo, cfg.ProfileCacheTTL, log)
	authSvc := service.NewAuthService(profileRepo, profiles, tokens, log)

	sender := webhook.NewTransport(webhook.Options{
		MaxAttempts: cfg.Webhook.MaxAttempts,
		BaseDelay:   cfg.Webhook.RetryDelay,
		Timeout:     cfg.Webhook.Timeout,
		Logger:      log,
	})
	if cfg.Webhook.GlobalURL == "" {
		log.Warn("GLOBAL_WEBHOOK_URL is not set, global notifications are disabled")
	}
	resolver := notification.NewResolver(cfg.Webhook.GlobalURL, webhookRepo, log)
	dispatcher := notification.NewDispatcher(resolver, sender, notification.NewRenderer(cfg.Location()), log)

	return &App{
		DB:         database.New(db, log),
		Tokens:     tokens,
		Auth:       authSvc,
		Profiles:   profiles,
		Orders:     service.NewOrderService(orderRepo, profiles, authSvc, dispatcher, log),
		Webhooks:   service.NewWebhookService(webhookRepo, profiles, sender, log),
		Dispatcher: dispatcher,
		Stats:      worker.NewStatsWorker(orderRepo, cfg.StatsInterval, log),
		cfg:        cfg,
		log:        log,
	}, nil
}

// EnsureAdmin creates or refreshes the bootstrap super admin from ADMIN_EMAIL
// and ADMIN_PASSWORD. It does nothing when they are unset.
func (a *App) EnsureAdmin(ctx context.Context) error {
	if a.cfg.AdminEmail == "" || a.cfg.AdminPassword == "" {
		a.log.Info("ADMIN_EMAIL not set, skipping administrator bootstrap")
		return nil
	}
	p, err := a.Profiles.Ensure(ctx, service.NewProfile{
		Email:    a.cfg.AdminEmail,
		Password: a.cfg.AdminPassword,
		Role:     domain.RoleSuperAdmin,
		Nickname: "admin",
	})
	if err != nil {
		return err
	}
	a.log.WithField("email", p.Email).Info("administrator ready")
	return nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
