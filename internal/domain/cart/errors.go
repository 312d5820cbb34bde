package cart

import "example.com/food-ordering/internal/domain/failure"

var (
	ErrInvalidItem     = failure.New(failure.KindValidation, "item id is required")
	ErrInvalidQuantity = failure.New(failure.KindValidation, "quantity must be positive")
	ErrQuantityLimit   = failure.New(failure.KindValidation, "item quantity limit reached")
	ErrUserNotFound    = failure.New(failure.KindPersistence, "cart owner not found")
)
