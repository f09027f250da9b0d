package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventOrderCreated EventType = "order_created"
	EventOrderUpdated EventType = "order_updated"
)

// NotificationEvent describes one order lifecycle change to be pushed to webhooks.
// PreviousStatus is set for order_updated and only for it.
type NotificationEvent struct {
	EventType      EventType    `json:"event_type"`
	OrderID        string       `json:"order_id"`
	ClientName     string       `json:"client_name"`
	AccountCount   int          `json:"account_count"`
	Timezone       string       `json:"timezone"`
	Status         OrderStatus  `json:"status"`
	PreviousStatus *OrderStatus `json:"previous_status,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

func NewOrderCreatedEvent(o *Order, at time.Time) NotificationEvent {
	return NotificationEvent{
		EventType:    EventOrderCreated,
		OrderID:      o.ID,
		ClientName:   o.ClientName,
		AccountCount: o.AccountCount,
		Timezone:     o.Timezone,
		Status:       o.Status,
		Timestamp:    at,
	}
}

func NewOrderUpdatedEvent(o *Order, previous OrderStatus, at time.Time) NotificationEvent {
	return NotificationEvent{
		EventType:      EventOrderUpdated,
		OrderID:        o.ID,
		ClientName:     o.ClientName,
		AccountCount:   o.AccountCount,
		Timezone:       o.Timezone,
		Status:         o.Status,
		PreviousStatus: &previous,
		Timestamp:      at,
	}
}

func (e NotificationEvent) Validate() error {
	switch e.EventType {
	case EventOrderCreated:
		if e.PreviousStatus != nil {
			return fmt.Errorf("%w: previous_status must be absent for %s", ErrValidation, e.EventType)
		}
	case EventOrderUpdated:
		if e.PreviousStatus == nil {
			return fmt.Errorf("%w: previous_status is required for %s", ErrValidation, e.EventType)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrValidation, e.EventType)
	}
	if e.OrderID == "" {
		return fmt.Errorf("%w: order_id is required", ErrValidation)
	}
	return nil
}
