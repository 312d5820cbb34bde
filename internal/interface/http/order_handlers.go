package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	checkoutuc "example.com/food-ordering/internal/usecase/checkout"
)

type placeOrderItem struct {
	// Storefront clients send the catalog document id as _id.
	LegacyID string          `json:"_id" validate:"max=64"`
	ItemID   string          `json:"itemId" validate:"max=64"`
	Name     string          `json:"name" validate:"max=200"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=0,lte=999"`
}

func (i placeOrderItem) id() string {
	if i.ItemID != "" {
		return i.ItemID
	}
	return i.LegacyID
}

type placeOrderRequest struct {
	Items   []placeOrderItem `json:"items" validate:"max=100,dive"`
	Amount  *decimal.Decimal `json:"amount"`
	Address json.RawMessage  `json:"address"`
}

type verifyOrderRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Success string `json:"success" validate:"required,oneof=true false"`
}

type updateStatusRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

// addressText accepts either a plain string or a structured address object,
// which is kept as compact JSON.
func addressText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", true
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	}
	if raw[0] != '{' {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	if buf.String() == "{}" {
		return "", true
	}
	return buf.String(), true
}

func (a *API) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())

	var req placeOrderRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondBadRequest(w)
		return
	}
	address, ok := addressText(req.Address)
	if !ok {
		respondBadRequest(w)
		return
	}

	items := make([]checkoutuc.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, checkoutuc.ItemInput{
			ItemID:   item.id(),
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	res, err := a.checkoutSvc.PlaceOrder(r.Context(), checkoutuc.PlaceOrderInput{
		UserID:  user.UserID,
		Items:   items,
		Amount:  req.Amount,
		Address: address,
	})
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"session_url": res.SessionURL, "orderId": res.OrderID})
}

func (a *API) handleVerifyOrder(w http.ResponseWriter, r *http.Request) {
	var req verifyOrderRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondBadRequest(w)
		return
	}

	result, err := a.checkoutSvc.ConfirmPayment(r.Context(), req.OrderID, req.Success == "true")
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	if result != checkoutuc.ResultPaid {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": string(result)})
		return
	}
	writeSuccess(w, map[string]any{"message": string(result)})
}

func (a *API) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())

	orders, err := a.orderSvc.ListUserOrders(r.Context(), user.UserID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"data": mapOrders(orders)})
}
