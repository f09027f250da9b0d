package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
//
//	pending <-> processing
//	pending | processing -> completed | cancelled
//
// completed and cancelled are terminal.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// MaxAccountNameSpecLen bounds the free-text naming spec, counted in runes.
const MaxAccountNameSpecLen = 300

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// RequiresStepUp reports whether moving into s needs the actor to re-enter a password.
func (s OrderStatus) RequiresStepUp() bool {
	return s.Terminal()
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	return s != next
}

type Order struct {
	ID              string      `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	ClientName      string      `json:"client_name"`
	AccountCount    int         `json:"account_count"`
	Timezone        string      `json:"timezone"`
	AccountNameSpec *string     `json:"account_name_spec,omitempty"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TimezoneStat is the pending account total for one timezone.
type TimezoneStat struct {
	Timezone string `json:"timezone"`
	Total    int    `json:"total"`
}

type OrderStats struct {
	Pending               int            `json:"pending"`
	Processing            int            `json:"processing"`
	Completed             int            `json:"completed"`
	Cancelled             int            `json:"cancelled"`
	Total                 int            `json:"total"`
	TotalAccountsProvided int            `json:"total_accounts_provided"`
	TimezoneStats         []TimezoneStat `json:"timezone_stats"`
}
