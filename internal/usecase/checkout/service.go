package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domcart "example.com/food-ordering/internal/domain/cart"
	"example.com/food-ordering/internal/domain/failure"
	domfood "example.com/food-ordering/internal/domain/food"
	domorder "example.com/food-ordering/internal/domain/order"
	"example.com/food-ordering/internal/domain/payment"
)

const deliveryLineName = "Delivery Charges"

type OrderRepository interface {
	Create(ctx context.Context, o *domorder.Order) error
	GetByID(ctx context.Context, id string) (*domorder.Order, error)
	AttachSession(ctx context.Context, id string, sessionID string) error
	MarkPaid(ctx context.Context, id string) error
	DeleteUnpaid(ctx context.Context, id string) error
}

type Config struct {
	// FrontendURL is where the gateway sends the payer back, as
	// {FrontendURL}/verify?success=...&orderId=...
	FrontendURL string
	DeliveryFee decimal.Decimal
}

type Dependencies struct {
	Orders  OrderRepository
	Carts   domcart.Repository
	Gateway payment.Gateway
	// Catalog reprices items when set. Without it the snapshot prices are
	// used and only the total is recomputed.
	Catalog domfood.Catalog
	Events  domorder.EventPublisher
	Logger  *zap.Logger
	Now     func() time.Time
}

type Service struct {
	orders  OrderRepository
	carts   domcart.Repository
	gateway payment.Gateway
	catalog domfood.Catalog
	events  domorder.EventPublisher
	logger  *zap.Logger
	now     func() time.Time
	cfg     Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	s := &Service{
		orders:  deps.Orders,
		carts:   deps.Carts,
		gateway: deps.Gateway,
		catalog: deps.Catalog,
		events:  deps.Events,
		logger:  deps.Logger,
		now:     deps.Now,
		cfg:     cfg,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return s
}

type ItemInput struct {
	ItemID   string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

type PlaceOrderInput struct {
	UserID  string
	Items   []ItemInput
	Address string
	// Amount is the total the client believes it owes. When set it must
	// equal the server-side total.
	Amount *decimal.Decimal
}

type PlaceOrderResult struct {
	OrderID    string
	SessionURL string
}

// PlaceOrder persists an unpaid order and opens a checkout session for it.
// The order is written before the gateway is called; a gateway failure leaves
// the order in place and the cart untouched.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	if len(in.Items) == 0 {
		return nil, domorder.ErrEmptyOrderItems
	}

	items, err := s.priceItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order, err := domorder.New(in.UserID, items, s.cfg.DeliveryFee, in.Address, s.now())
	if err != nil {
		return nil, err
	}
	if in.Amount != nil && !in.Amount.Equal(order.Amount) {
		return nil, fmt.Errorf("%w: declared %s, computed %s", domorder.ErrAmountMismatch, in.Amount.String(), order.Amount.String())
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("failed to save order",
			zap.String("user_id", order.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domorder.ErrOrderCreation, err)
	}
	s.publish(ctx, domorder.EventPlaced, order)

	session, err := s.gateway.CreateCheckoutSession(ctx, s.checkoutRequest(order))
	if err != nil {
		s.logger.Error("failed to create checkout session",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, failure.Wrap(failure.KindGateway, "create checkout session", err)
	}

	if err := s.orders.AttachSession(ctx, order.ID, session.ID); err != nil {
		s.logger.Warn("failed to record checkout session",
			zap.String("order_id", order.ID),
			zap.String("session_id", session.ID),
			zap.Error(err))
	}

	if err := s.carts.Clear(ctx, order.UserID); err != nil {
		s.logger.Warn("failed to clear cart after checkout",
			zap.String("order_id", order.ID),
			zap.String("user_id", order.UserID),
			zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("amount", order.Amount.String()),
		zap.String("session_id", session.ID))

	return &PlaceOrderResult{OrderID: order.ID, SessionURL: session.URL}, nil
}

type PaymentResult string

const (
	ResultPaid    PaymentResult = "Paid"
	ResultNotPaid PaymentResult = "Not Paid"
)

// ConfirmPayment finalizes an order from the gateway outcome. A successful
// payment marks the order paid; a failed one deletes the order and puts its
// items back in the cart. An order can be finalized once: a second call
// returns ErrAlreadyFinalized for a paid order and ErrOrderNotFound for a
// deleted one.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string, success bool) (PaymentResult, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", failure.Wrap(failure.KindPersistence, "load order", err)
	}
	if order.Payment {
		return "", domorder.ErrAlreadyFinalized
	}

	if success {
		if err := s.orders.MarkPaid(ctx, orderID); err != nil {
			return "", failure.Wrap(failure.KindPersistence, "mark order paid", err)
		}
		order.Payment = true
		s.publish(ctx, domorder.EventPaid, order)
		s.logger.Info("order paid", zap.String("order_id", orderID))
		return ResultPaid, nil
	}

	if err := s.orders.DeleteUnpaid(ctx, orderID); err != nil {
		return "", failure.Wrap(failure.KindPersistence, "cancel order", err)
	}
	s.restoreCart(ctx, order)
	s.publish(ctx, domorder.EventCancelled, order)
	s.logger.Info("order cancelled", zap.String("order_id", orderID))
	return ResultNotPaid, nil
}

func (s *Service) priceItems(ctx context.Context, in []ItemInput) ([]domorder.LineItem, error) {
	items := make([]domorder.LineItem, len(in))
	for i, item := range in {
		items[i] = domorder.LineItem{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	if s.catalog == nil {
		return items, nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ItemID == "" {
			return nil, domorder.ErrUnknownItem
		}
		ids = append(ids, item.ItemID)
	}

	foods, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, failure.Wrap(failure.KindPersistence, "load catalog", err)
	}
	byID := make(map[string]*domfood.Food, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}

	for i, item := range items {
		f, ok := byID[item.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domorder.ErrUnknownItem, item.ItemID)
		}
		items[i].Name = f.Name
		items[i].Price = f.Price
	}
	return items, nil
}

func (s *Service) checkoutRequest(o *domorder.Order) payment.CheckoutRequest {
	lines := make([]payment.LineItem, 0, len(o.Items)+1)
	for _, item := range o.Items {
		lines = append(lines, payment.LineItem{
			Name:       item.Name,
			UnitAmount: item.Price,
			Quantity:   item.Quantity,
		})
	}
	if s.cfg.DeliveryFee.IsPositive() {
		lines = append(lines, payment.LineItem{
			Name:       deliveryLineName,
			UnitAmount: s.cfg.DeliveryFee,
			Quantity:   1,
		})
	}

	return payment.CheckoutRequest{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Items:      lines,
		SuccessURL: s.returnURL(o.ID, true),
		CancelURL:  s.returnURL(o.ID, false),
	}
}

func (s *Service) returnURL(orderID string, success bool) string {
	q := url.Values{}
	q.Set("success", fmt.Sprintf("%t", success))
	q.Set("orderId", orderID)
	return s.cfg.FrontendURL + "/verify?" + q.Encode()
}

// restoreCart tops the cart back up to a cancelled order's quantities. The
// cart is only cleared once a session exists and the clear can fail, so items
// still in the cart are not added a second time. Items without an id came
// from a client snapshot and cannot be restored.
func (s *Service) restoreCart(ctx context.Context, o *domorder.Order) {
	log := s.logger.With(zap.String("order_id", o.ID), zap.String("user_id", o.UserID))

	ordered := make(map[domcart.ItemID]int, len(o.Items))
	for _, item := range o.Items {
		if item.ItemID != "" {
			ordered[domcart.ItemID(item.ItemID)] += item.Quantity
		}
	}
	if len(ordered) == 0 {
		return
	}

	c, err := s.carts.Get(ctx, o.UserID)
	if err != nil {
		log.Warn("failed to load cart for restore", zap.Error(err))
		return
	}

	counter, atomic := s.carts.(domcart.Counter)
	changed := false
	for id, qty := range ordered {
		missing := qty - c.Quantity(id)
		if missing <= 0 {
			continue
		}
		if atomic {
			err = counter.Increment(ctx, o.UserID, id, missing)
		} else {
			err = c.AddN(id, missing)
			changed = changed || err == nil
		}
		if err != nil {
			log.Warn("failed to restore cart item", zap.String("item_id", string(id)), zap.Error(err))
		}
	}
	if !changed {
		return
	}
	if err := s.carts.Save(ctx, c); err != nil {
		log.Warn("failed to save restored cart", zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, t domorder.EventType, o *domorder.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, domorder.NewEvent(t, o, s.now())); err != nil {
		s.logger.Error("failed to publish order event",
			zap.String("order_id", o.ID),
			zap.String("event_type", string(t)),
			zap.Error(err))
	}
}
