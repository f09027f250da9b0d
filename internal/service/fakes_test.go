package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"order-console/internal/auth"
	"order-console/internal/domain"
	"order-console/internal/notification"
)

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	creates   int
	finds     int
	createErr error
	// gate, when set, blocks CreateOrder until closed.
	gate    chan struct{}
	entered chan struct{}
	// staleWrite makes the next conditional update miss.
	staleWrite bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]domain.Order{}}
}

func (f *fakeOrderRepo) FindById(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, o *domain.Order) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ context.Context, o *domain.Order, expected domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.orders[o.ID]
	if !ok || cur.Status != expected || f.staleWrite {
		return domain.ErrConcurrentUpdate
	}
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) List(context.Context) ([]domain.Order, error) {
	return f.filter(func(domain.Order) bool { return true }), nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return f.filter(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (f *fakeOrderRepo) filter(keep func(domain.Order) bool) []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Order{}
	for _, o := range f.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeOrderRepo) put(o domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
}

func (f *fakeOrderRepo) get(id string) domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]domain.Profile
	finds    int
}

func newFakeProfileRepo(profiles ...domain.Profile) *fakeProfileRepo {
	f := &fakeProfileRepo{profiles: map[uuid.UUID]domain.Profile{}}
	for _, p := range profiles {
		f.profiles[p.ID] = p
	}
	return f
}

func (f *fakeProfileRepo) FindById(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProfileRepo) FindByEmail(_ context.Context, email string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeProfileRepo) List(context.Context) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Profile{}
	for _, p := range f.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return domain.ErrConflict
		}
	}
	f.profiles[p.ID] = *p
	return nil
}

func (f *fakeProfileRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return f.update(id, func(p *domain.Profile) { p.PasswordHash = hash })
}

func (f *fakeProfileRepo) ListCustomers(context.Context) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Profile{}
	for _, p := range f.profiles {
		if p.Role == domain.RoleCustomer {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) UpdateClientName(_ context.Context, id uuid.UUID, name string) error {
	return f.update(id, func(p *domain.Profile) { p.ClientName = name })
}

func (f *fakeProfileRepo) UpdateNickname(_ context.Context, id uuid.UUID, nickname string) error {
	return f.update(id, func(p *domain.Profile) { p.Nickname = nickname })
}

func (f *fakeProfileRepo) update(id uuid.UUID, apply func(*domain.Profile)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	apply(&p)
	f.profiles[id] = p
	return nil
}

func (f *fakeProfileRepo) Upsert(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.profiles {
		if existing.Email == p.Email {
			p.ID = id
			p.CreatedAt = existing.CreatedAt
		}
	}
	f.profiles[p.ID] = *p
	return nil
}

type fakeWebhookRepo struct {
	mu       sync.Mutex
	settings map[uuid.UUID]domain.WebhookSetting
	global   *domain.MessageTemplates
	// owners resolves a setting's ClientID to its customer profile.
	owners   *fakeProfileRepo
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{settings: map[uuid.UUID]domain.WebhookSetting{}}
}

func (f *fakeWebhookRepo) ListActiveByClientName(ctx context.Context, clientName string) ([]domain.WebhookSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.WebhookSetting{}
	if f.owners == nil {
		return out, nil
	}
	for _, w := range f.settings {
		owner, _ := f.owners.FindById(ctx, w.ClientID)
		if owner == nil || owner.Role != domain.RoleCustomer || owner.ClientName != clientName || !w.IsActive {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeWebhookRepo) List(context.Context) ([]domain.WebhookSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.WebhookSetting{}
	for _, w := range f.settings {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeWebhookRepo) FindById(_ context.Context, id uuid.UUID) (*domain.WebhookSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.settings[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (f *fakeWebhookRepo) Create(_ context.Context, w *domain.WebhookSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[w.ID] = *w
	return nil
}

func (f *fakeWebhookRepo) Update(_ context.Context, w *domain.WebhookSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settings[w.ID]; !ok {
		return domain.ErrNotFound
	}
	f.settings[w.ID] = *w
	return nil
}

func (f *fakeWebhookRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.settings, id)
	return nil
}

func (f *fakeWebhookRepo) GetGlobalConfig(context.Context) (*domain.MessageTemplates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.global, nil
}

func (f *fakeWebhookRepo) SaveGlobalConfig(_ context.Context, cfg domain.MessageTemplates) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global = &cfg
	return nil
}

type sentEvent struct {
	ev    domain.NotificationEvent
	extra notification.Extra
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeNotifier) Notify(_ context.Context, ev domain.NotificationEvent, extra notification.Extra) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{ev: ev, extra: extra})
	done := make(chan struct{})
	close(done)
	return done
}

func (f *fakeNotifier) sent() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEvent(nil), f.events...)
}

type fakeSender struct {
	mu       sync.Mutex
	probeErr error
	probes   []string
}

func (f *fakeSender) Send(context.Context, string, string) error { return nil }

func (f *fakeSender) Probe(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, url)
	return f.probeErr
}

func newTestProfile(t *testing.T, role domain.Role, password string) domain.Profile {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return domain.Profile{
		ID:           uuid.New(),
		Email:        strings.ToLower(string(role)) + "-" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
}
