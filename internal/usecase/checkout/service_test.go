package checkout

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domcart "example.com/food-ordering/internal/domain/cart"
	"example.com/food-ordering/internal/domain/failure"
	domfood "example.com/food-ordering/internal/domain/food"
	domorder "example.com/food-ordering/internal/domain/order"
	"example.com/food-ordering/internal/domain/payment"
)

type mockOrderRepository struct {
	orders    map[string]*domorder.Order
	createErr error
	created   int
	sessions  map[string]string
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders:   make(map[string]*domorder.Order),
		sessions: make(map[string]string),
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domorder.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	cloned := *o
	m.orders[o.ID] = &cloned
	m.created++
	return nil
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domorder.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domorder.ErrOrderNotFound
	}
	cloned := *o
	return &cloned, nil
}

func (m *mockOrderRepository) AttachSession(ctx context.Context, id string, sessionID string) error {
	o, ok := m.orders[id]
	if !ok {
		return domorder.ErrOrderNotFound
	}
	o.SessionID = sessionID
	m.sessions[id] = sessionID
	return nil
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, id string) error {
	o, ok := m.orders[id]
	if !ok {
		return domorder.ErrOrderNotFound
	}
	if o.Payment {
		return domorder.ErrAlreadyFinalized
	}
	o.Payment = true
	return nil
}

func (m *mockOrderRepository) DeleteUnpaid(ctx context.Context, id string) error {
	o, ok := m.orders[id]
	if !ok {
		return domorder.ErrOrderNotFound
	}
	if o.Payment {
		return domorder.ErrAlreadyFinalized
	}
	delete(m.orders, id)
	return nil
}

type mockCartRepository struct {
	carts    map[string]map[domcart.ItemID]int
	clearErr error
	cleared  map[string]bool
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		carts:   make(map[string]map[domcart.ItemID]int),
		cleared: make(map[string]bool),
	}
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	return domcart.FromQuantities(userID, m.carts[userID]), nil
}

func (m *mockCartRepository) Save(ctx context.Context, c *domcart.Cart) error {
	m.carts[c.UserID] = c.Items()
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context, userID string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared[userID] = true
	delete(m.carts, userID)
	return nil
}

// mockCounterCartRepository adds atomic per-item increments, like the Redis store.
type mockCounterCartRepository struct {
	*mockCartRepository
	increments map[domcart.ItemID]int
}

func (m *mockCounterCartRepository) Increment(ctx context.Context, userID string, id domcart.ItemID, n int) error {
	if m.carts[userID] == nil {
		m.carts[userID] = make(map[domcart.ItemID]int)
	}
	m.carts[userID][id] += n
	m.increments[id] += n
	return nil
}

func (m *mockCounterCartRepository) Decrement(ctx context.Context, userID string, id domcart.ItemID) error {
	return nil
}

type mockGateway struct {
	err      error
	requests []payment.CheckoutRequest
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &payment.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

type mockCatalog struct {
	foods []*domfood.Food
}

func (m *mockCatalog) GetByIDs(ctx context.Context, ids []string) ([]*domfood.Food, error) {
	var out []*domfood.Food
	for _, f := range m.foods {
		for _, id := range ids {
			if f.ID == id {
				out = append(out, f)
				break
			}
		}
	}
	return out, nil
}

type mockPublisher struct {
	events []domorder.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, evt domorder.Event) error {
	m.events = append(m.events, evt)
	return m.err
}

func (m *mockPublisher) types() []domorder.EventType {
	out := make([]domorder.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	orders  *mockOrderRepository
	carts   *mockCartRepository
	gateway *mockGateway
	events  *mockPublisher
	svc     *Service
}

func newFixture(t *testing.T, catalog domfood.Catalog, fee decimal.Decimal) *fixture {
	t.Helper()
	f := &fixture{
		orders:  newMockOrderRepository(),
		carts:   newMockCartRepository(),
		gateway: &mockGateway{},
		events:  &mockPublisher{},
	}
	f.svc = NewService(Dependencies{
		Orders:  f.orders,
		Carts:   f.carts,
		Gateway: f.gateway,
		Catalog: catalog,
		Events:  f.events,
		Now:     func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}, Config{FrontendURL: "http://localhost:5173/", DeliveryFee: fee})
	return f
}

func pizzaInput() PlaceOrderInput {
	return PlaceOrderInput{
		UserID:  "u1",
		Items:   []ItemInput{{ItemID: "f1", Name: "Pizza", Price: decimal.NewFromInt(10), Quantity: 2}},
		Address: "X",
	}
}

func TestPlaceOrder_PersistsUnpaidOrderAndReturnsSessionURL(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	f.carts.carts["u1"] = map[domcart.ItemID]int{"f1": 2}

	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())

	require.NoError(t, err)
	require.Equal(t, "https://pay.example.com/cs_test_1", res.SessionURL)

	stored := f.orders.orders[res.OrderID]
	require.NotNil(t, stored)
	require.False(t, stored.Payment)
	require.Equal(t, domorder.StatusFoodProcessing, stored.Status)
	require.True(t, decimal.NewFromInt(20).Equal(stored.Amount))
	require.Equal(t, "cs_test_1", stored.SessionID)
	require.True(t, f.carts.cleared["u1"])
	require.Equal(t, []domorder.EventType{domorder.EventPlaced}, f.events.types())
}

func TestPlaceOrder_BuildsGatewayRequest(t *testing.T) {
	f := newFixture(t, nil, decimal.RequireFromString("2.50"))

	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())
	require.NoError(t, err)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	require.Equal(t, res.OrderID, req.OrderID)
	require.Equal(t, "u1", req.UserID)
	require.Len(t, req.Items, 2)
	require.Equal(t, "Pizza", req.Items[0].Name)
	require.Equal(t, 2, req.Items[0].Quantity)
	require.Equal(t, deliveryLineName, req.Items[1].Name)
	require.True(t, decimal.RequireFromString("2.50").Equal(req.Items[1].UnitAmount))

	success, err := url.Parse(req.SuccessURL)
	require.NoError(t, err)
	require.Equal(t, "/verify", success.Path)
	require.Equal(t, "true", success.Query().Get("success"))
	require.Equal(t, res.OrderID, success.Query().Get("orderId"))

	cancel, err := url.Parse(req.CancelURL)
	require.NoError(t, err)
	require.Equal(t, "false", cancel.Query().Get("success"))
	require.Equal(t, "http://localhost:5173/verify?orderId="+res.OrderID+"&success=false", req.CancelURL)

	require.True(t, decimal.RequireFromString("22.50").Equal(f.orders.orders[res.OrderID].Amount))
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	in := pizzaInput()
	in.Items = nil

	res, err := f.svc.PlaceOrder(context.Background(), in)

	require.ErrorIs(t, err, domorder.ErrEmptyOrderItems)
	require.Nil(t, res)
	require.Zero(t, f.orders.created)
	require.Empty(t, f.gateway.requests)
	require.False(t, f.carts.cleared["u1"])
}

func TestPlaceOrder_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*PlaceOrderInput)
		want   error
	}{
		{"missing address", func(in *PlaceOrderInput) { in.Address = "  " }, domorder.ErrMissingAddress},
		{"zero quantity", func(in *PlaceOrderInput) { in.Items[0].Quantity = 0 }, domorder.ErrInvalidLineItem},
		{"amount mismatch", func(in *PlaceOrderInput) {
			declared := decimal.NewFromInt(5)
			in.Amount = &declared
		}, domorder.ErrAmountMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, decimal.Zero)
			in := pizzaInput()
			tt.modify(&in)

			_, err := f.svc.PlaceOrder(context.Background(), in)

			require.ErrorIs(t, err, tt.want)
			require.Equal(t, failure.KindValidation, failure.KindOf(err))
			require.Zero(t, f.orders.created)
			require.Empty(t, f.gateway.requests)
		})
	}
}

func TestPlaceOrder_MatchingDeclaredAmount(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	in := pizzaInput()
	declared := decimal.RequireFromString("20.00")
	in.Amount = &declared

	_, err := f.svc.PlaceOrder(context.Background(), in)

	require.NoError(t, err)
}

func TestPlaceOrder_PersistenceFailureSkipsGateway(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	storeErr := errors.New("connection refused")
	f.orders.createErr = storeErr

	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())

	require.ErrorIs(t, err, domorder.ErrOrderCreation)
	require.ErrorIs(t, err, storeErr, "store error stays reachable")
	require.Equal(t, failure.KindPersistence, failure.KindOf(err))
	require.Nil(t, res)
	require.Empty(t, f.gateway.requests)
	require.Empty(t, f.events.events)
}

func TestPlaceOrder_GatewayFailureKeepsOrder(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	f.carts.carts["u1"] = map[domcart.ItemID]int{"f1": 2}
	f.gateway.err = errors.New("stripe unavailable")

	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())

	require.Error(t, err)
	require.Equal(t, failure.KindGateway, failure.KindOf(err))
	require.Nil(t, res)
	require.Len(t, f.orders.orders, 1)
	require.False(t, f.carts.cleared["u1"], "cart stays when no session was opened")
}

func TestPlaceOrder_CartClearFailureIsNotReturned(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	f.carts.clearErr = errors.New("write timeout")

	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())

	require.NoError(t, err)
	require.NotEmpty(t, res.SessionURL)
}

func TestPlaceOrder_EventFailureIsNotReturned(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	f.events.err = errors.New("broker down")

	_, err := f.svc.PlaceOrder(context.Background(), pizzaInput())

	require.NoError(t, err)
}

func TestPlaceOrder_RepricesFromCatalog(t *testing.T) {
	catalog := &mockCatalog{foods: []*domfood.Food{
		{ID: "f1", Name: "Margherita", Price: decimal.RequireFromString("12.50")},
	}}
	f := newFixture(t, catalog, decimal.Zero)
	in := pizzaInput()
	in.Items[0].Price = decimal.NewFromInt(1)

	res, err := f.svc.PlaceOrder(context.Background(), in)

	require.NoError(t, err)
	stored := f.orders.orders[res.OrderID]
	require.Equal(t, "Margherita", stored.Items[0].Name)
	require.True(t, decimal.NewFromInt(25).Equal(stored.Amount))
}

func TestPlaceOrder_UnknownCatalogItem(t *testing.T) {
	f := newFixture(t, &mockCatalog{}, decimal.Zero)

	_, err := f.svc.PlaceOrder(context.Background(), pizzaInput())

	require.ErrorIs(t, err, domorder.ErrUnknownItem)
	require.Zero(t, f.orders.created)
}

func TestConfirmPayment_Success(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())
	require.NoError(t, err)

	result, err := f.svc.ConfirmPayment(context.Background(), res.OrderID, true)

	require.NoError(t, err)
	require.Equal(t, ResultPaid, result)
	require.True(t, f.orders.orders[res.OrderID].Payment)
	require.Equal(t, []domorder.EventType{domorder.EventPlaced, domorder.EventPaid}, f.events.types())

	_, err = f.svc.ConfirmPayment(context.Background(), res.OrderID, true)
	require.ErrorIs(t, err, domorder.ErrAlreadyFinalized)

	_, err = f.svc.ConfirmPayment(context.Background(), res.OrderID, false)
	require.ErrorIs(t, err, domorder.ErrAlreadyFinalized)
	require.Contains(t, f.orders.orders, res.OrderID, "paid order is never deleted")
}

func TestConfirmPayment_FailureDeletesOrderAndRestoresCart(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	f.carts.carts["u1"] = map[domcart.ItemID]int{"f1": 2}
	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())
	require.NoError(t, err)
	require.Empty(t, f.carts.carts["u1"])

	result, err := f.svc.ConfirmPayment(context.Background(), res.OrderID, false)

	require.NoError(t, err)
	require.Equal(t, ResultNotPaid, result)
	require.NotContains(t, f.orders.orders, res.OrderID)
	require.Equal(t, map[domcart.ItemID]int{"f1": 2}, f.carts.carts["u1"])
	require.Equal(t, []domorder.EventType{domorder.EventPlaced, domorder.EventCancelled}, f.events.types())

	_, err = f.svc.ConfirmPayment(context.Background(), res.OrderID, false)
	require.ErrorIs(t, err, domorder.ErrOrderNotFound)
	require.Equal(t, failure.KindNotFound, failure.KindOf(err))
}

func TestConfirmPayment_UnknownOrder(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)

	result, err := f.svc.ConfirmPayment(context.Background(), "missing", true)

	require.ErrorIs(t, err, domorder.ErrOrderNotFound)
	require.Empty(t, result)
}

func onlyOrderID(t *testing.T, orders *mockOrderRepository) string {
	t.Helper()
	require.Len(t, orders.orders, 1)
	for id := range orders.orders {
		return id
	}
	return ""
}

func TestConfirmPayment_FailureAfterGatewayErrorKeepsCart(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	f.carts.carts["u1"] = map[domcart.ItemID]int{"f1": 2}
	f.gateway.err = errors.New("stripe down")

	_, err := f.svc.PlaceOrder(context.Background(), pizzaInput())
	require.Error(t, err)
	orderID := onlyOrderID(t, f.orders)

	result, err := f.svc.ConfirmPayment(context.Background(), orderID, false)

	require.NoError(t, err)
	require.Equal(t, ResultNotPaid, result)
	require.Equal(t, map[domcart.ItemID]int{"f1": 2}, f.carts.carts["u1"])
}

func TestConfirmPayment_FailureAfterClearErrorKeepsCart(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	f.carts.carts["u1"] = map[domcart.ItemID]int{"f1": 2, "f9": 1}
	f.carts.clearErr = errors.New("write timeout")

	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(context.Background(), res.OrderID, false)

	require.NoError(t, err)
	require.Equal(t, map[domcart.ItemID]int{"f1": 2, "f9": 1}, f.carts.carts["u1"])
}

func TestConfirmPayment_FailureTopsUpAtomicCart(t *testing.T) {
	f := newFixture(t, nil, decimal.Zero)
	carts := &mockCounterCartRepository{mockCartRepository: f.carts, increments: make(map[domcart.ItemID]int)}
	f.svc.carts = carts

	res, err := f.svc.PlaceOrder(context.Background(), pizzaInput())
	require.NoError(t, err)
	f.carts.carts["u1"] = map[domcart.ItemID]int{"f1": 1}

	_, err = f.svc.ConfirmPayment(context.Background(), res.OrderID, false)

	require.NoError(t, err)
	require.Equal(t, map[domcart.ItemID]int{"f1": 2}, f.carts.carts["u1"])
	require.Equal(t, map[domcart.ItemID]int{"f1": 1}, carts.increments)
}
