package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"order-console/internal/domain"
	"order-console/internal/metrics"
	"order-console/internal/notification"
	"order-console/internal/repo"
)

const orderIDLayout = "20060102150405"

// Notifier starts a notification fan-out. The returned channel closes when it finishes.
type Notifier interface {
	Notify(ctx context.Context, ev domain.NotificationEvent, extra notification.Extra) <-chan struct{}
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, in domain.CreateOrderInput) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, password string) error
	// ListOrders returns every order for staff and the caller's own orders otherwise, newest first.
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

type orderService struct {
	orderRepo repo.OrderRepo
	profiles  ProfileService
	authn     Authenticator
	notifier  Notifier
	log       logrus.FieldLogger

	creating singleflight.Group
	now      func() time.Time
	letter   func() byte
}

func NewOrderService(
	orderRepo repo.OrderRepo,
	profiles ProfileService,
	authn Authenticator,
	notifier Notifier,
	log logrus.FieldLogger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		profiles:  profiles,
		authn:     authn,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
		letter:    func() byte { return byte('A' + rand.IntN(26)) },
	}
}

// newOrderID is the UTC creation second followed by two random capital letters.
func (s *orderService) newOrderID(at time.Time) string {
	return at.UTC().Format(orderIDLayout) + string([]byte{s.letter(), s.letter()})
}

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, in domain.CreateOrderInput) (*domain.Order, error) {
	if err := domain.ValidateCreateOrder(in); err != nil {
		return nil, err
	}

	now := s.now()
	key := fmt.Sprintf("%s_%d", userID, now.UnixMilli())
	v, err, shared := s.creating.Do(key, func() (any, error) {
		return s.insertOrder(ctx, userID, in, now)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.WithField("create_key", key).Info("duplicate create request joined in-flight insert")
	}
	order := *v.(*domain.Order)
	return &order, nil
}

func (s *orderService) insertOrder(ctx context.Context, userID uuid.UUID, in domain.CreateOrderInput, now time.Time) (*domain.Order, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if isNotFound(err) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:              s.newOrderID(now),
		UserID:          userID,
		ClientName:      profile.ClientName,
		AccountCount:    in.AccountCount,
		Timezone:        in.Timezone,
		AccountNameSpec: in.AccountNameSpec,
		Status:          domain.OrderPending,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	metrics.OrdersCreatedTotal.Inc()
	s.log.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"client_name": order.ClientName,
		"accounts":    order.AccountCount,
	}).Info("order created")

	s.notifier.Notify(ctx, domain.NewOrderCreatedEvent(order, now), notification.Extra{})
	return order, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, password string) error {
	actor, err := s.authn.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !actor.IsStaff() {
		return domain.ErrForbidden
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if status.RequiresStepUp() {
		if password == "" {
			return domain.ErrPasswordRequired
		}
		if err := s.authn.VerifyPassword(ctx, password); err != nil {
			return err
		}
	}

	order, err := s.orderRepo.FindById(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}

	previous := order.Status
	if !previous.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, previous, status)
	}

	now := s.now()
	order.Status = status
	order.UpdatedAt = now.UTC()
	if err := s.orderRepo.UpdateOrderStatus(ctx, order, previous); err != nil {
		return err
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(previous), string(status)).Inc()
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       status,
		"actor":    actor.ID,
	}).Info("order status updated")

	s.notifier.Notify(ctx, domain.NewOrderUpdatedEvent(order, previous, now), notification.Extra{Nickname: displayName(actor)})
	return nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	user, err := s.authn.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.IsStaff() {
		return s.orderRepo.List(ctx)
	}
	return s.orderRepo.ListByUser(ctx, user.ID)
}

func displayName(p *domain.Profile) string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Email
}
