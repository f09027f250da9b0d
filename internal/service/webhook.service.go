package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"order-console/internal/domain"
	"order-console/internal/infrastructure/webhook"
	"order-console/internal/repo"
)

type CreateWebhookInput struct {
	ClientID      uuid.UUID                `json:"client_id" binding:"required"`
	WebhookURL    string                   `json:"webhook_url" binding:"required"`
	PayloadConfig *domain.MessageTemplates `json:"payload_config"`
}

// UpdateWebhookInput leaves nil fields untouched.
type UpdateWebhookInput struct {
	WebhookURL *string `json:"webhook_url"`
	IsActive   *bool   `json:"is_active"`
}

type WebhookService interface {
	List(ctx context.Context) ([]domain.WebhookSetting, error)
	// Create validates and probes the URL before storing an active setting.
	Create(ctx context.Context, in CreateWebhookInput) (*domain.WebhookSetting, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateWebhookInput) (*domain.WebhookSetting, error)
	// UpdatePayloadConfig replaces the client templates. nil reverts to the global config.
	UpdatePayloadConfig(ctx context.Context, id uuid.UUID, cfg *domain.MessageTemplates) (*domain.WebhookSetting, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// GlobalConfig returns the stored global templates, or the defaults when none were saved.
	GlobalConfig(ctx context.Context) (domain.MessageTemplates, error)
	SaveGlobalConfig(ctx context.Context, cfg domain.MessageTemplates) error
}

type webhookService struct {
	webhooks repo.WebhookRepo
	profiles ProfileService
	sender   webhook.Sender
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewWebhookService(webhooks repo.WebhookRepo, profiles ProfileService, sender webhook.Sender, log logrus.FieldLogger) WebhookService {
	return &webhookService{
		webhooks: webhooks,
		profiles: profiles,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

func (s *webhookService) List(ctx context.Context) ([]domain.WebhookSetting, error) {
	return s.webhooks.List(ctx)
}

func (s *webhookService) Create(ctx context.Context, in CreateWebhookInput) (*domain.WebhookSetting, error) {
	client, err := s.profiles.Get(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: webhooks can only be attached to customers", domain.ErrValidation)
	}
	url := strings.TrimSpace(in.WebhookURL)
	if err := s.checkEndpoint(ctx, url); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	setting := &domain.WebhookSetting{
		ID:            uuid.New(),
		ClientID:      client.ID,
		WebhookURL:    url,
		IsActive:      true,
		PayloadConfig: in.PayloadConfig,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.webhooks.Create(ctx, setting); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"webhook_id":  setting.ID,
		"client_name": client.ClientName,
	}).Info("webhook registered")
	return s.webhooks.FindById(ctx, setting.ID)
}

func (s *webhookService) Update(ctx context.Context, id uuid.UUID, in UpdateWebhookInput) (*domain.WebhookSetting, error) {
	return s.modify(ctx, id, func(w *domain.WebhookSetting) error {
		if in.WebhookURL != nil {
			url := strings.TrimSpace(*in.WebhookURL)
			if url != w.WebhookURL {
				if err := s.checkEndpoint(ctx, url); err != nil {
					return err
				}
				w.WebhookURL = url
			}
		}
		if in.IsActive != nil {
			w.IsActive = *in.IsActive
		}
		return nil
	})
}

func (s *webhookService) UpdatePayloadConfig(ctx context.Context, id uuid.UUID, cfg *domain.MessageTemplates) (*domain.WebhookSetting, error) {
	return s.modify(ctx, id, func(w *domain.WebhookSetting) error {
		w.PayloadConfig = cfg
		return nil
	})
}

func (s *webhookService) modify(ctx context.Context, id uuid.UUID, apply func(*domain.WebhookSetting) error) (*domain.WebhookSetting, error) {
	w, err := s.webhooks.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("webhook %s: %w", id, domain.ErrNotFound)
	}
	if err := apply(w); err != nil {
		return nil, err
	}
	w.UpdatedAt = s.now().UTC()
	if err := s.webhooks.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *webhookService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.webhooks.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("webhook_id", id).Info("webhook deleted")
	return nil
}

func (s *webhookService) GlobalConfig(ctx context.Context) (domain.MessageTemplates, error) {
	cfg, err := s.webhooks.GetGlobalConfig(ctx)
	if err != nil {
		return domain.MessageTemplates{}, err
	}
	if cfg == nil {
		return domain.DefaultMessageTemplates, nil
	}
	return *cfg, nil
}

func (s *webhookService) SaveGlobalConfig(ctx context.Context, cfg domain.MessageTemplates) error {
	return s.webhooks.SaveGlobalConfig(ctx, cfg)
}

func (s *webhookService) checkEndpoint(ctx context.Context, url string) error {
	if err := webhook.ValidateURL(url); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidWebhookURL, err)
	}
	if err := s.sender.Probe(ctx, url); err != nil {
		s.log.WithError(err).WithField("url", url).Warn("webhook probe failed")
		if errors.Is(err, webhook.ErrInvalidURL) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidWebhookURL, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrWebhookUnreachable, err)
	}
	return nil
}
