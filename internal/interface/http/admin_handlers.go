package http

import (
	"net/http"

	domorder "example.com/food-ordering/internal/domain/order"
)

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := a.orderSvc.ListAllOrders(r.Context())
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"data": mapOrders(orders)})
}

func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondBadRequest(w)
		return
	}

	status, err := domorder.ParseStatus(req.Status)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	if _, err := a.orderSvc.AdvanceStatus(r.Context(), req.OrderID, status); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, map[string]any{"message": "Status Updated"})
}
