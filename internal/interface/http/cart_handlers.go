package http

import (
	"net/http"

	domcart "example.com/food-ordering/internal/domain/cart"
)

// The userId some clients still send in these bodies is ignored; the cart
// always belongs to the authenticated user.
type cartItemRequest struct {
	ItemID string `json:"itemId" validate:"required,max=64"`
}

func (a *API) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())

	var req cartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondBadRequest(w)
		return
	}

	if err := a.cartSvc.AddItem(r.Context(), user.UserID, domcart.ItemID(req.ItemID)); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"message": "Added to cart"})
}

func (a *API) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())

	var req cartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondBadRequest(w)
		return
	}

	if err := a.cartSvc.RemoveItem(r.Context(), user.UserID, domcart.ItemID(req.ItemID)); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"message": "Removed from cart"})
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())

	items, err := a.cartSvc.GetCart(r.Context(), user.UserID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"cartData": items})
}
