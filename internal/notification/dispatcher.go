package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"order-console/internal/domain"
	"order-console/internal/infrastructure/webhook"
	"order-console/internal/metrics"
)

type DestinationResolver interface {
	Resolve(ctx context.Context, ev domain.NotificationEvent) domain.Destinations
}

// Key identifies the same logical notification for in-flight collapsing.
type Key struct {
	EventType domain.EventType
	OrderID   string
	Status    domain.OrderStatus
}

func KeyOf(ev domain.NotificationEvent) Key {
	return Key{EventType: ev.EventType, OrderID: ev.OrderID, Status: ev.Status}
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s", k.EventType, k.OrderID, k.Status)
}

// Dispatcher fans an event out to the global webhook and every active client
// webhook. Delivery failures are logged and never returned.
type Dispatcher struct {
	resolver DestinationResolver
	sender   webhook.Sender
	renderer Renderer
	log      logrus.FieldLogger

	inflight singleflight.Group
	wg       sync.WaitGroup

	// mu orders wg.Add against Wait; once closed, Notify drops events.
	mu     sync.Mutex
	closed bool
}

func NewDispatcher(resolver DestinationResolver, sender webhook.Sender, renderer Renderer, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		sender:   sender,
		renderer: renderer,
		log:      log,
	}
}

// Notify starts (or joins) the fan-out for ev and returns a channel that is closed
// once that fan-out has finished. Cancelling ctx does not stop the fan-out.
// Events arriving after Wait was called are dropped.
func (d *Dispatcher) Notify(ctx context.Context, ev domain.NotificationEvent, extra Extra) <-chan struct{} {
	done := make(chan struct{})
	if err := ev.Validate(); err != nil {
		d.log.WithError(err).WithField("order_id", ev.OrderID).Error("dropping invalid notification event")
		close(done)
		return done
	}

	key := KeyOf(ev)
	fanCtx := context.WithoutCancel(ctx)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.WithField("event_key", key.String()).Warn("dispatcher is draining, dropping notification")
		close(done)
		return done
	}
	d.wg.Add(1)
	d.mu.Unlock()

	results := d.inflight.DoChan(key.String(), func() (any, error) {
		d.fanOut(fanCtx, key, ev, extra)
		return nil, nil
	})
	go func() {
		defer d.wg.Done()
		res := <-results
		if res.Shared {
			metrics.NotificationsDedupedTotal.Inc()
		}
		close(done)
	}()
	return done
}

// Wait stops accepting events and blocks until every fan-out started through
// Notify has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) fanOut(ctx context.Context, key Key, ev domain.NotificationEvent, extra Extra) {
	log := d.log.WithFields(logrus.Fields{
		"event_key":   key.String(),
		"client_name": ev.ClientName,
	})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("notification fan-out panicked")
		}
	}()

	dests := d.resolver.Resolve(ctx, ev)
	log.WithFields(logrus.Fields{
		"has_global":      dests.Global != nil,
		"client_webhooks": len(dests.Clients),
	}).Info("webhook destinations resolved")

	if dests.Global != nil {
		if err := d.deliver(ctx, *dests.Global, ev, extra); err != nil {
			deliveryLog(log, *dests.Global, err).Error("failed to send to global webhook")
		} else {
			log.WithField("url", dests.Global.URL).Info("global webhook sent")
		}
	}

	if len(dests.Clients) == 0 {
		return
	}

	errs := make([]error, len(dests.Clients))
	var wg sync.WaitGroup
	for i, dest := range dests.Clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = d.deliver(ctx, dest, ev, extra)
		}()
	}
	wg.Wait()

	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		deliveryLog(log, dests.Clients[i], err).Error("failed client webhook notification")
	}
	log.WithFields(logrus.Fields{
		"total":      len(dests.Clients),
		"successful": len(dests.Clients) - failed,
		"failed":     failed,
	}).Info("client webhook notifications completed")
}

func (d *Dispatcher) deliver(ctx context.Context, dest domain.Destination, ev domain.NotificationEvent, extra Extra) (err error) {
	kind := dest.Kind.String()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webhook delivery panicked: %v", r)
		}
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.WebhookDeliveriesTotal.WithLabelValues(kind, outcome).Inc()
		metrics.WebhookDeliveryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	text := d.renderer.Render(dest.Templates.For(ev.EventType), ev, extra)
	return d.sender.Send(ctx, dest.URL, text)
}

func deliveryLog(log logrus.FieldLogger, dest domain.Destination, err error) logrus.FieldLogger {
	fields := logrus.Fields{
		"destination": dest.Kind.String(),
		"url":         dest.URL,
	}
	if dest.Kind == domain.DestinationClient {
		fields["webhook_id"] = dest.WebhookID.String()
	}
	var derr *webhook.DeliveryError
	if errors.As(err, &derr) {
		fields["attempts"] = derr.Attempts
	}
	return log.WithFields(fields).WithError(err)
}
