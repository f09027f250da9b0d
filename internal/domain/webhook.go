package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageTemplates holds one template per event type. Empty slots fall back to
// DefaultMessageTemplates.
type MessageTemplates struct {
	OrderCreated string `json:"orderCreated"`
	OrderUpdated string `json:"orderUpdated"`
}

var DefaultMessageTemplates = MessageTemplates{
	OrderCreated: "收到新订单啦! 订单号: {order_id}, 客户名: {client_name}, 账户数量: {account_count}, 时区: {timezone}. {timestamp}. 赶紧处理吧~",
	OrderUpdated: "订单更新! 订单号: {order_id}, 状态由{nickname}从 {previous_status} 更新为 {status}. {timestamp}",
}

// For returns the template for the event type, falling back to the default when
// the slot is empty. A nil receiver yields the defaults.
func (t *MessageTemplates) For(eventType EventType) string {
	var tmpl, fallback string
	switch eventType {
	case EventOrderCreated:
		fallback = DefaultMessageTemplates.OrderCreated
		if t != nil {
			tmpl = t.OrderCreated
		}
	case EventOrderUpdated:
		fallback = DefaultMessageTemplates.OrderUpdated
		if t != nil {
			tmpl = t.OrderUpdated
		}
	}
	if tmpl == "" {
		return fallback
	}
	return tmpl
}

// WebhookSetting is a per-client webhook row managed by administrators.
type WebhookSetting struct {
	ID            uuid.UUID         `json:"id"`
	ClientID      uuid.UUID         `json:"client_id"`
	WebhookURL    string            `json:"webhook_url"`
	IsActive      bool              `json:"is_active"`
	PayloadConfig *MessageTemplates `json:"payload_config,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Client        *Profile          `json:"client,omitempty"`
}

type DestinationKind int

const (
	DestinationGlobal DestinationKind = iota
	DestinationClient
)

func (k DestinationKind) String() string {
	if k == DestinationGlobal {
		return "global"
	}
	return "client"
}

// Destination is a resolved webhook target. WebhookID and ClientName are only set
// for client destinations.
type Destination struct {
	Kind       DestinationKind
	URL        string
	Templates  *MessageTemplates
	WebhookID  uuid.UUID
	ClientName string
}

type Destinations struct {
	Global  *Destination
	Clients []Destination
}
