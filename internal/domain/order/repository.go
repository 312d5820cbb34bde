package order

import "context"

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context) ([]*Order, error)
	AttachSession(ctx context.Context, id string, sessionID string) error

	// MarkPaid and DeleteUnpaid only touch unpaid orders. They return
	// ErrAlreadyFinalized for a paid order and ErrOrderNotFound for a missing one.
	MarkPaid(ctx context.Context, id string) error
	DeleteUnpaid(ctx context.Context, id string) error

	// UpdateStatus sets the status only while it still equals from, and
	// returns ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
}
