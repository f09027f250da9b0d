package notification

import (
	"context"
	"errors"
	"sync"

	"order-console/internal/domain"
)

type fakeWebhooks struct {
	mu        sync.Mutex
	byName    map[string][]domain.WebhookSetting
	global    *domain.MessageTemplates
	globalErr error
	listErr   error
	lookups   int
}

func (f *fakeWebhooks) ListActiveByClientName(_ context.Context, name string) ([]domain.WebhookSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byName[name], nil
}

func (f *fakeWebhooks) GetGlobalConfig(context.Context) (*domain.MessageTemplates, error) {
	return f.global, f.globalErr
}

var errStore = errors.New("store unavailable")
