package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-console/internal/auth"
	"order-console/internal/domain"
	"order-console/internal/infrastructure/webhook"
	"order-console/internal/logger"
	"order-console/internal/notification"
)

type recordingSink struct {
	*httptest.Server
	mu    sync.Mutex
	texts []string
}

func newRecordingSink(t *testing.T) *recordingSink {
	t.Helper()
	s := &recordingSink{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg webhook.Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		s.mu.Lock()
		s.texts = append(s.texts, msg.Content.Text)
		s.mu.Unlock()
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *recordingSink) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func TestOrderLifecycle_NotifiesThroughDispatcher(t *testing.T) {
	global := newRecordingSink(t)
	client := newRecordingSink(t)

	customer := newTestProfile(t, domain.RoleCustomer, "customer-pass")
	customer.ClientName = "Acme"
	other := newTestProfile(t, domain.RoleCustomer, "other-pass")
	other.ClientName = "Globex"
	employee := newTestProfile(t, domain.RoleEmployee, employeePassword)
	employee.Nickname = "kit"

	profileRepo := newFakeProfileRepo(customer, other, employee)
	webhookRepo := newFakeWebhookRepo()
	webhookRepo.owners = profileRepo
	require.NoError(t, webhookRepo.Create(context.Background(), &domain.WebhookSetting{
		ID: uuid.New(), ClientID: other.ID, WebhookURL: client.URL, IsActive: true,
	}))

	sender := webhook.NewTransport(webhook.Options{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: logger.Discard()})
	resolver := notification.NewResolver(global.URL, webhookRepo, logger.Discard())
	dispatcher := notification.NewDispatcher(resolver, sender, notification.Renderer{}, logger.Discard())

	profiles := NewProfileService(profileRepo, time.Minute, logger.Discard())
	authn := NewAuthService(profileRepo, profiles, auth.NewTokens("test-secret", time.Hour), logger.Discard())
	orders := newFakeOrderRepo()
	svc := NewOrderService(orders, profiles, authn, dispatcher, logger.Discard())

	order, err := svc.CreateOrder(auth.WithUserID(context.Background(), customer.ID), customer.ID,
		domain.CreateOrderInput{AccountCount: 5, Timezone: "GMT+08:00"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, orders.get(order.ID).Status)

	// Completing without a password never reaches the store or the sinks.
	err = svc.UpdateOrderStatus(auth.WithUserID(context.Background(), employee.ID), order.ID, domain.OrderCompleted, "")
	require.ErrorIs(t, err, domain.ErrPasswordRequired)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Wait(ctx))

	texts := global.received()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "订单号: "+order.ID)
	assert.Contains(t, texts[0], "账户数量: 5")
	assert.Contains(t, texts[0], "时区: GMT+08:00")
	assert.Empty(t, client.received(), "Acme has no webhooks; Globex must not be notified")
	assert.Equal(t, domain.OrderPending, orders.get(order.ID).Status)
}

func TestOrderCreated_NotifiesEveryCustomerSharingClientName(t *testing.T) {
	older := newRecordingSink(t)
	newer := newRecordingSink(t)

	first := newTestProfile(t, domain.RoleCustomer, "first-pass")
	first.ClientName = "Acme"
	second := newTestProfile(t, domain.RoleCustomer, "second-pass")
	second.ClientName = "Acme"
	second.CreatedAt = first.CreatedAt.Add(time.Hour)

	profileRepo := newFakeProfileRepo(first, second)
	webhookRepo := newFakeWebhookRepo()
	webhookRepo.owners = profileRepo
	for _, w := range []domain.WebhookSetting{
		{ID: uuid.New(), ClientID: first.ID, WebhookURL: older.URL, IsActive: true},
		{ID: uuid.New(), ClientID: second.ID, WebhookURL: newer.URL, IsActive: true},
	} {
		require.NoError(t, webhookRepo.Create(context.Background(), &w))
	}

	sender := webhook.NewTransport(webhook.Options{MaxAttempts: 1, BaseDelay: time.Millisecond, Logger: logger.Discard()})
	dispatcher := notification.NewDispatcher(notification.NewResolver("", webhookRepo, logger.Discard()), sender, notification.Renderer{}, logger.Discard())

	profiles := NewProfileService(profileRepo, time.Minute, logger.Discard())
	authn := NewAuthService(profileRepo, profiles, auth.NewTokens("test-secret", time.Hour), logger.Discard())
	svc := NewOrderService(newFakeOrderRepo(), profiles, authn, dispatcher, logger.Discard())

	_, err := svc.CreateOrder(auth.WithUserID(context.Background(), second.ID), second.ID,
		domain.CreateOrderInput{AccountCount: 2, Timezone: "GMT+00:00"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Wait(ctx))

	assert.Len(t, newer.received(), 1, "the ordering customer's own webhook")
	assert.Len(t, older.received(), 1, "the other Acme customer's webhook")
}
