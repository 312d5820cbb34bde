package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"example.com/food-ordering/internal/domain/failure"
)

var ErrGateway = failure.New(failure.KindGateway, "payment gateway failure")

type LineItem struct {
	Name       string
	UnitAmount decimal.Decimal
	Quantity   int
}

type CheckoutRequest struct {
	OrderID    string
	UserID     string
	Items      []LineItem
	SuccessURL string
	CancelURL  string
}

// Session is an in-progress payment attempt held by the gateway. The payer
// is sent to URL; the outcome arrives out of band.
type Session struct {
	ID  string
	URL string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
}
