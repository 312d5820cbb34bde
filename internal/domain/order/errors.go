package order

import "example.com/food-ordering/internal/domain/failure"

var (
	ErrOrderNotFound     = failure.New(failure.KindNotFound, "order not found")
	ErrAlreadyFinalized  = failure.New(failure.KindAlreadyFinalized, "order payment already finalized")
	ErrEmptyOrderItems   = failure.New(failure.KindValidation, "no items to checkout")
	ErrInvalidLineItem   = failure.New(failure.KindValidation, "invalid order item")
	ErrPricePrecision    = failure.New(failure.KindValidation, "item price has more than two decimal places")
	ErrMissingAddress    = failure.New(failure.KindValidation, "delivery address is required")
	ErrAmountMismatch    = failure.New(failure.KindValidation, "order amount does not match items")
	ErrUnknownItem       = failure.New(failure.KindValidation, "order item not in catalog")
	ErrInvalidStatus     = failure.New(failure.KindValidation, "invalid order status")
	ErrInvalidTransition = failure.New(failure.KindValidation, "order status can only move forward")
	ErrOrderNotPaid      = failure.New(failure.KindValidation, "order payment not confirmed")
	ErrStatusConflict    = failure.New(failure.KindValidation, "order status changed concurrently")
	ErrOrderCreation     = failure.New(failure.KindPersistence, "order creation failed")
)
