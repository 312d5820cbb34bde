package mysql

import (
	"context"
	"database/sql"
	"errors"

	domcart "example.com/food-ordering/internal/domain/cart"
)

// CartRepository keeps each cart as a JSON object on the owner's user row.
type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT cart_data FROM users WHERE id = ?`, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domcart.ErrUserNotFound
		}
		return nil, err
	}
	return domcart.UnmarshalQuantities(userID, data)
}

func (r *CartRepository) Save(ctx context.Context, c *domcart.Cart) error {
	data, err := domcart.MarshalQuantities(c)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET cart_data = ? WHERE id = ?`, data, c.UserID)
	if err != nil {
		return err
	}
	return r.ensureUpdated(ctx, res, c.UserID)
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET cart_data = JSON_OBJECT() WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return r.ensureUpdated(ctx, res, userID)
}

// ensureUpdated tells a missing user apart from an unchanged row. MySQL
// reports zero affected rows for both.
func (r *CartRepository) ensureUpdated(ctx context.Context, res sql.Result, userID string) error {
	rows, _ := res.RowsAffected()
	if rows > 0 {
		return nil
	}
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domcart.ErrUserNotFound
	}
	return err
}
