package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the fulfillment stage of an order.
type Status string

const (
	StatusFoodProcessing Status = "Food Processing"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusDelivered      Status = "Delivered"
)

var stages = []Status{StatusFoodProcessing, StatusOutForDelivery, StatusDelivered}

func (s Status) IsValid() bool {
	return s.stage() >= 0
}

func (s Status) stage() int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStatus matches s against the known stages ignoring case and
// surrounding space, and returns the canonical value.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range stages {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

type LineItem struct {
	ItemID   string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a snapshot of purchased items. Only Payment, Status and SessionID
// change after creation.
type Order struct {
	ID        string
	UserID    string
	Items     []LineItem
	Amount    decimal.Decimal
	Address   string
	Payment   bool
	Status    Status
	SessionID string
	CreatedAt time.Time
}

// Total is the amount owed for items plus the delivery fee.
func Total(items []LineItem, deliveryFee decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.Add(deliveryFee)
}

// New validates the snapshot and returns an unpaid order in the first
// fulfillment stage.
func New(userID string, items []LineItem, deliveryFee decimal.Decimal, address string, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrderItems
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrMissingAddress
	}

	snapshot := make([]LineItem, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity <= 0 || item.Price.IsNegative() {
			return nil, ErrInvalidLineItem
		}
		// Amounts are stored and charged in cents.
		if !item.Price.Equal(item.Price.Round(2)) {
			return nil, ErrPricePrecision
		}
		snapshot[i] = item
	}

	return &Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     snapshot,
		Amount:    Total(snapshot, deliveryFee),
		Address:   address,
		Payment:   false,
		Status:    StatusFoodProcessing,
		CreatedAt: now.UTC(),
	}, nil
}

// CheckAdvance reports whether the order may move to next. Only paid orders
// advance, and only forward through the stages.
func (o *Order) CheckAdvance(next Status) error {
	if !next.IsValid() {
		return ErrInvalidStatus
	}
	if !o.Payment {
		return ErrOrderNotPaid
	}
	if next.stage() <= o.Status.stage() {
		return ErrInvalidTransition
	}
	return nil
}
