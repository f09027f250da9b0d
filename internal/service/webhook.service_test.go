package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-console/internal/domain"
	"order-console/internal/logger"
)

type webhookFixture struct {
	svc      WebhookService
	repo     *fakeWebhookRepo
	sender   *fakeSender
	customer domain.Profile
	employee domain.Profile
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	customer := newTestProfile(t, domain.RoleCustomer, "pw")
	customer.ClientName = "Acme"
	employee := newTestProfile(t, domain.RoleEmployee, "pw")
	profiles := NewProfileService(newFakeProfileRepo(customer, employee), time.Minute, logger.Discard())

	f := &webhookFixture{
		repo:     newFakeWebhookRepo(),
		sender:   &fakeSender{},
		customer: customer,
		employee: employee,
	}
	f.svc = NewWebhookService(f.repo, profiles, f.sender, logger.Discard())
	return f
}

func TestWebhookService_Create(t *testing.T) {
	f := newWebhookFixture(t)

	w, err := f.svc.Create(context.Background(), CreateWebhookInput{
		ClientID:   f.customer.ID,
		WebhookURL: " https://hooks.example.com/acme ",
	})
	require.NoError(t, err)
	assert.True(t, w.IsActive)
	assert.Equal(t, "https://hooks.example.com/acme", w.WebhookURL)
	assert.Equal(t, []string{"https://hooks.example.com/acme"}, f.sender.probes)
}

func TestWebhookService_CreateRejects(t *testing.T) {
	t.Run("malformed url is not probed", func(t *testing.T) {
		f := newWebhookFixture(t)
		_, err := f.svc.Create(context.Background(), CreateWebhookInput{ClientID: f.customer.ID, WebhookURL: "ftp://x"})
		assert.ErrorIs(t, err, domain.ErrInvalidWebhookURL)
		assert.Empty(t, f.sender.probes)
	})
	t.Run("unreachable endpoint", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.sender.probeErr = errors.New("connection refused")
		_, err := f.svc.Create(context.Background(), CreateWebhookInput{ClientID: f.customer.ID, WebhookURL: "http://127.0.0.1:1"})
		assert.ErrorIs(t, err, domain.ErrWebhookUnreachable)
		assert.Empty(t, f.repo.settings)
	})
	t.Run("staff account", func(t *testing.T) {
		f := newWebhookFixture(t)
		_, err := f.svc.Create(context.Background(), CreateWebhookInput{ClientID: f.employee.ID, WebhookURL: "https://h.example.com"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestWebhookService_Update(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	w, err := f.svc.Create(ctx, CreateWebhookInput{ClientID: f.customer.ID, WebhookURL: "https://a.example.com"})
	require.NoError(t, err)

	inactive := false
	updated, err := f.svc.Update(ctx, w.ID, UpdateWebhookInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Len(t, f.sender.probes, 1, "toggling must not re-probe")

	same := "https://a.example.com"
	_, err = f.svc.Update(ctx, w.ID, UpdateWebhookInput{WebhookURL: &same})
	require.NoError(t, err)
	assert.Len(t, f.sender.probes, 1)

	moved := "https://b.example.com"
	updated, err = f.svc.Update(ctx, w.ID, UpdateWebhookInput{WebhookURL: &moved})
	require.NoError(t, err)
	assert.Equal(t, moved, updated.WebhookURL)
	assert.Len(t, f.sender.probes, 2)

	bad := "not a url"
	_, err = f.svc.Update(ctx, w.ID, UpdateWebhookInput{WebhookURL: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidWebhookURL)
}

func TestWebhookService_PayloadConfigAndDelete(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	w, err := f.svc.Create(ctx, CreateWebhookInput{ClientID: f.customer.ID, WebhookURL: "https://a.example.com"})
	require.NoError(t, err)

	cfg := &domain.MessageTemplates{OrderCreated: "new {order_id}"}
	updated, err := f.svc.UpdatePayloadConfig(ctx, w.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, updated.PayloadConfig)

	updated, err = f.svc.UpdatePayloadConfig(ctx, w.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.PayloadConfig)

	require.NoError(t, f.svc.Delete(ctx, w.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, w.ID), domain.ErrNotFound)
	_, err = f.svc.UpdatePayloadConfig(ctx, w.ID, cfg)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWebhookService_GlobalConfig(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	cfg, err := f.svc.GlobalConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMessageTemplates, cfg)

	custom := domain.MessageTemplates{OrderCreated: "C", OrderUpdated: "U"}
	require.NoError(t, f.svc.SaveGlobalConfig(ctx, custom))
	cfg, err = f.svc.GlobalConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, cfg)
}
