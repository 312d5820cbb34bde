package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventPlaced        EventType = "order.placed"
	EventPaid          EventType = "order.paid"
	EventCancelled     EventType = "order.cancelled"
	EventStatusChanged EventType = "order.status_changed"
)

type Event struct {
	ID         string
	Type       EventType
	OrderID    string
	UserID     string
	Amount     decimal.Decimal
	Status     Status
	OccurredAt time.Time
}

func NewEvent(t EventType, o *Order, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Amount:     o.Amount,
		Status:     o.Status,
		OccurredAt: now.UTC(),
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
