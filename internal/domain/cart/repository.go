package cart

import "context"

// Repository persists whole carts. Save overwrites what is stored, so
// concurrent read-modify-write cycles for one user resolve as last write wins.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID string) error
}

// Counter is implemented by stores that can change a single item quantity
// atomically. Decrement removes the item at its last unit and ignores absent
// items.
type Counter interface {
	Increment(ctx context.Context, userID string, id ItemID, n int) error
	Decrement(ctx context.Context, userID string, id ItemID) error
}
