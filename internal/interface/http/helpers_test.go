package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domcart "example.com/food-ordering/internal/domain/cart"
	domorder "example.com/food-ordering/internal/domain/order"
	"example.com/food-ordering/internal/domain/payment"
	"example.com/food-ordering/internal/infra/security"
	authuc "example.com/food-ordering/internal/usecase/auth"
	cartuc "example.com/food-ordering/internal/usecase/cart"
	checkoutuc "example.com/food-ordering/internal/usecase/checkout"
	orderuc "example.com/food-ordering/internal/usecase/order"
)

const testSecret = "test-secret"

// --- In-memory repositories ---

type memoryCartRepository struct {
	carts  map[string]map[domcart.ItemID]int
	getErr error
	saves  int
}

func newMemoryCartRepository() *memoryCartRepository {
	return &memoryCartRepository{carts: make(map[string]map[domcart.ItemID]int)}
}

func (m *memoryCartRepository) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return domcart.FromQuantities(userID, m.carts[userID]), nil
}

func (m *memoryCartRepository) Save(ctx context.Context, c *domcart.Cart) error {
	m.saves++
	m.carts[c.UserID] = c.Items()
	return nil
}

func (m *memoryCartRepository) Clear(ctx context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

type memoryOrderRepository struct {
	orders    map[string]*domorder.Order
	createErr error
}

func newMemoryOrderRepository() *memoryOrderRepository {
	return &memoryOrderRepository{orders: make(map[string]*domorder.Order)}
}

func (m *memoryOrderRepository) Create(ctx context.Context, o *domorder.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	cloned := *o
	m.orders[o.ID] = &cloned
	return nil
}

func (m *memoryOrderRepository) GetByID(ctx context.Context, id string) (*domorder.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domorder.ErrOrderNotFound
	}
	cloned := *o
	return &cloned, nil
}

func (m *memoryOrderRepository) sorted(keep func(*domorder.Order) bool) []*domorder.Order {
	out := make([]*domorder.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if keep(o) {
			cloned := *o
			out = append(out, &cloned)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memoryOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domorder.Order, error) {
	return m.sorted(func(o *domorder.Order) bool { return o.UserID == userID }), nil
}

func (m *memoryOrderRepository) List(ctx context.Context) ([]*domorder.Order, error) {
	return m.sorted(func(*domorder.Order) bool { return true }), nil
}

func (m *memoryOrderRepository) AttachSession(ctx context.Context, id string, sessionID string) error {
	o, ok := m.orders[id]
	if !ok {
		return domorder.ErrOrderNotFound
	}
	o.SessionID = sessionID
	return nil
}

func (m *memoryOrderRepository) MarkPaid(ctx context.Context, id string) error {
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

func (m *memoryOrderRepository) DeleteUnpaid(ctx context.Context, id string) error {
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

func (m *memoryOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domorder.Status) error {
	o, ok := m.orders[id]
	if !ok {
		return domorder.ErrOrderNotFound
	}
	if o.Status != from || !o.Payment {
		return domorder.ErrStatusConflict
	}
	o.Status = to
	return nil
}

type fakeGateway struct {
	err      error
	requests []payment.CheckoutRequest
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Session{ID: "cs_test_" + req.OrderID, URL: "https://checkout.example.com/" + req.OrderID}, nil
}

// --- Setup ---

type testEnv struct {
	router  http.Handler
	carts   *memoryCartRepository
	orders  *memoryOrderRepository
	gateway *fakeGateway
	tokens  *security.JWTService
	health  error
}

func newTestEnv(t *testing.T, adminKey string) *testEnv {
	t.Helper()

	env := &testEnv{
		carts:   newMemoryCartRepository(),
		orders:  newMemoryOrderRepository(),
		gateway: &fakeGateway{},
		tokens:  security.NewJWTService(testSecret, time.Hour),
	}

	api := NewAPI(Dependencies{
		AuthService: authuc.NewService(env.tokens),
		CartService: cartuc.NewService(env.carts),
		CheckoutService: checkoutuc.NewService(checkoutuc.Dependencies{
			Orders:  env.orders,
			Carts:   env.carts,
			Gateway: env.gateway,
		}, checkoutuc.Config{FrontendURL: "http://localhost:5173"}),
		OrderService: orderuc.NewService(env.orders, nil, nil),
		AdminKey:     adminKey,
		HealthCheck:  func(ctx context.Context) error { return env.health },
	})
	env.router = api.Router()
	return env
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.tokens.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func newJSONRequest(method, path string, body any) *http.Request {
	var req *http.Request
	if body != nil {
		payload, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	return req
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func (e *testEnv) doAuthed(t *testing.T, method, path, userID string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := newJSONRequest(method, path, body)
	req.Header.Set("token", e.token(t, userID))
	return e.do(t, req)
}

var errStoreDown = errors.New("store unreachable")
