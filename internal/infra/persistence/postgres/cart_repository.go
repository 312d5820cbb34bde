package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domcart "example.com/food-ordering/internal/domain/cart"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT cart_data FROM users WHERE id = $1`, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	tag, err := r.pool.Exec(ctx, `UPDATE users SET cart_data = $1 WHERE id = $2`, data, c.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domcart.ErrUserNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET cart_data = '{}'::jsonb WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domcart.ErrUserNotFound
	}
	return nil
}
