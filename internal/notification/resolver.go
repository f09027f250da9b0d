package notification

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"order-console/internal/domain"
)

type WebhookStore interface {
	// ListActiveByClientName covers every customer carrying the name, not just the first.
	ListActiveByClientName(ctx context.Context, clientName string) ([]domain.WebhookSetting, error)
	GetGlobalConfig(ctx context.Context) (*domain.MessageTemplates, error)
}

// Resolver works out where an event must be delivered and with which templates.
type Resolver struct {
	globalURL string
	webhooks  WebhookStore
	log       logrus.FieldLogger
}

func NewResolver(globalURL string, webhooks WebhookStore, log logrus.FieldLogger) *Resolver {
	return &Resolver{globalURL: globalURL, webhooks: webhooks, log: log}
}

// Resolve never fails: lookup errors are logged and yield fewer destinations.
func (r *Resolver) Resolve(ctx context.Context, ev domain.NotificationEvent) domain.Destinations {
	var (
		globalCfg *domain.MessageTemplates
		settings  []domain.WebhookSetting
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg, err := r.webhooks.GetGlobalConfig(gctx)
		if err != nil {
			r.log.WithError(err).Warn("failed to load global webhook config, using default templates")
			return nil
		}
		globalCfg = cfg
		return nil
	})
	g.Go(func() error {
		settings = r.clientWebhooks(gctx, ev.ClientName)
		return nil
	})
	_ = g.Wait()

	var dests domain.Destinations
	if r.globalURL != "" {
		dests.Global = &domain.Destination{
			Kind:      domain.DestinationGlobal,
			URL:       r.globalURL,
			Templates: globalCfg,
		}
	}
	for _, s := range settings {
		if !s.IsActive {
			continue
		}
		templates := s.PayloadConfig
		if templates == nil {
			templates = globalCfg
		}
		dests.Clients = append(dests.Clients, domain.Destination{
			Kind:       domain.DestinationClient,
			URL:        s.WebhookURL,
			Templates:  templates,
			WebhookID:  s.ID,
			ClientName: ev.ClientName,
		})
	}
	return dests
}

func (r *Resolver) clientWebhooks(ctx context.Context, clientName string) []domain.WebhookSetting {
	log := r.log.WithField("client_name", clientName)
	if clientName == "" {
		log.Warn("no client name provided for webhook lookup")
		return nil
	}
	settings, err := r.webhooks.ListActiveByClientName(ctx, clientName)
	if err != nil {
		log.WithError(err).Error("failed to fetch client webhooks")
		return nil
	}
	if len(settings) == 0 {
		log.Debug("no active webhooks for client")
	}
	return settings
}
