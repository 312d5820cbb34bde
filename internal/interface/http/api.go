package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"example.com/food-ordering/internal/domain/failure"
	domorder "example.com/food-ordering/internal/domain/order"
	authuc "example.com/food-ordering/internal/usecase/auth"
	cartuc "example.com/food-ordering/internal/usecase/cart"
	checkoutuc "example.com/food-ordering/internal/usecase/checkout"
	orderuc "example.com/food-ordering/internal/usecase/order"
)

type API struct {
	authSvc     *authuc.Service
	cartSvc     *cartuc.Service
	checkoutSvc *checkoutuc.Service
	orderSvc    *orderuc.Service
	validator   *validator.Validate
	logger      *zap.Logger
	adminKey    string
	healthCheck func(ctx context.Context) error
}

type Dependencies struct {
	AuthService     *authuc.Service
	CartService     *cartuc.Service
	CheckoutService *checkoutuc.Service
	OrderService    *orderuc.Service
	Logger          *zap.Logger
	// AdminKey, when set, must be presented in X-Admin-Key on admin routes.
	AdminKey string
	// HealthCheck pings the backing store for GET /health.
	HealthCheck func(ctx context.Context) error
}

func NewAPI(deps Dependencies) *API {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		authSvc:     deps.AuthService,
		cartSvc:     deps.CartService,
		checkoutSvc: deps.CheckoutService,
		orderSvc:    deps.OrderService,
		validator:   validator.New(),
		logger:      logger,
		adminKey:    deps.AdminKey,
		healthCheck: deps.HealthCheck,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Payment redirect callback; the order id is the only reference.
		r.Post("/order/verify", a.handleVerifyOrder)

		r.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Post("/cart/add", a.handleAddToCart)
			pr.Post("/cart/remove", a.handleRemoveFromCart)
			pr.Post("/cart/get", a.handleGetCart)
			pr.Post("/order/place", a.handlePlaceOrder)
			pr.Post("/order/userOrders", a.handleUserOrders)
		})

		r.Group(func(ar chi.Router) {
			ar.Use(a.adminMiddleware)
			ar.Get("/order/list", a.handleListOrders)
			ar.Post("/order/status", a.handleUpdateStatus)
		})
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.healthCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.healthCheck(ctx); err != nil {
			a.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, fields map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	writeJSON(w, http.StatusOK, payload)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

const (
	codeBadRequest = "bad_request"
	codeForbidden  = "forbidden"
	genericMessage = "Error"
)

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message, Code: code})
}

func respondBadRequest(w http.ResponseWriter) {
	respondError(w, http.StatusBadRequest, codeBadRequest, "Invalid request")
}

// handleDomainError picks the status from the error kind. Store, gateway and
// token details stay in the log; callers see the generic message.
func (a *API) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := failure.KindOf(err)
	status := http.StatusInternalServerError
	message := genericMessage

	switch kind {
	case failure.KindUnauthenticated:
		status = http.StatusUnauthorized
		message = failure.Message(err)
	case failure.KindTokenInvalid:
		status = http.StatusUnauthorized
	case failure.KindValidation:
		status = http.StatusUnprocessableEntity
		message = failure.Message(err)
	case failure.KindNotFound:
		status = http.StatusNotFound
		message = failure.Message(err)
	case failure.KindAlreadyFinalized:
		status = http.StatusConflict
		message = failure.Message(err)
	case failure.KindGateway:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
	if message == "" {
		message = genericMessage
	}
	respondError(w, status, string(kind), message)
}

func mapOrder(o *domorder.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"itemId":   item.ItemID,
			"name":     item.Name,
			"price":    item.Price.InexactFloat64(),
			"quantity": item.Quantity,
		})
	}

	return map[string]any{
		"id":        o.ID,
		"userId":    o.UserID,
		"items":     items,
		"amount":    o.Amount.InexactFloat64(),
		"address":   o.Address,
		"payment":   o.Payment,
		"status":    o.Status,
		"sessionId": o.SessionID,
		"createdAt": o.CreatedAt,
	}
}

func mapOrders(orders []*domorder.Order) []map[string]any {
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, mapOrder(o))
	}
	return out
}
