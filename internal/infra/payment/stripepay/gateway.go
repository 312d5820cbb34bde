package stripepay

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"example.com/food-ordering/internal/domain/payment"
)

type Config struct {
	SecretKey string
	// Currency is an ISO code with two minor units, such as "usd" or "inr".
	Currency string
}

// Gateway opens Stripe Checkout sessions in payment mode.
type Gateway struct {
	api      *client.API
	currency string
}

func New(cfg Config) *Gateway {
	return newGateway(cfg, nil)
}

func newGateway(cfg Config, backends *stripe.Backends) *Gateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Gateway{api: api, currency: currency}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	params, err := g.sessionParams(req)
	if err != nil {
		return nil, err
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGateway, err)
	}
	if s.URL == "" {
		return nil, fmt.Errorf("%w: session %s has no url", payment.ErrGateway, s.ID)
	}
	return &payment.Session{ID: s.ID, URL: s.URL}, nil
}

func (g *Gateway) sessionParams(req payment.CheckoutRequest) (*stripe.CheckoutSessionParams, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: no line items", payment.ErrGateway)
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		if item.UnitAmount.IsNegative() || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: invalid line item %q", payment.ErrGateway, item.Name)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				// Minor units: 12.50 becomes 1250.
				UnitAmount: stripe.Int64(item.UnitAmount.Shift(2).Round(0).IntPart()),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("user_id", req.UserID)
	return params, nil
}
