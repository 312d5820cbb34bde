package mysql

import (
	"context"
	"database/sql"
	"errors"

	domorder "example.com/food-ordering/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, amount, address, payment, status, session_id, created_at`

func (r *OrderRepository) Create(ctx context.Context, o *domorder.Order) (retErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO orders (id, user_id, amount, address, payment, status, session_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, o.ID, o.UserID, o.Amount, o.Address, o.Payment, o.Status, o.SessionID, o.CreatedAt)
	if err != nil {
		return err
	}

	for i, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO order_items (order_id, position, item_id, name, price, quantity)
            VALUES (?, ?, ?, ?, ?, ?)
        `, o.ID, i, item.ItemID, item.Name, item.Price, item.Quantity)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domorder.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domorder.ErrOrderNotFound
		}
		return nil, err
	}
	items, err := r.listOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domorder.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *OrderRepository) List(ctx context.Context) ([]*domorder.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *OrderRepository) AttachSession(ctx context.Context, id string, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET session_id = ? WHERE id = ?`, sessionID, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return r.existsOrNotFound(ctx, id)
	}
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET payment = TRUE WHERE id = ? AND payment = FALSE`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return r.finalizedOrNotFound(ctx, id)
	}
	return nil
}

func (r *OrderRepository) DeleteUnpaid(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ? AND payment = FALSE`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return r.finalizedOrNotFound(ctx, id)
	}
	return nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domorder.Status) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders SET status = ?
        WHERE id = ? AND status = ? AND payment = TRUE
    `, to, id, from)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		if err := r.existsOrNotFound(ctx, id); err != nil {
			return err
		}
		return domorder.ErrStatusConflict
	}
	return nil
}

func (r *OrderRepository) finalizedOrNotFound(ctx context.Context, id string) error {
	var paid bool
	err := r.db.QueryRowContext(ctx, `SELECT payment FROM orders WHERE id = ?`, id).Scan(&paid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domorder.ErrOrderNotFound
	case err != nil:
		return err
	case paid:
		return domorder.ErrAlreadyFinalized
	}
	// The row changed between the guarded write and this read.
	return domorder.ErrStatusConflict
}

func (r *OrderRepository) existsOrNotFound(ctx context.Context, id string) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domorder.ErrOrderNotFound
	}
	return err
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*domorder.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domorder.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, o := range orders {
		items, err := r.listOrderItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return orders, nil
}

func (r *OrderRepository) listOrderItems(ctx context.Context, orderID string) ([]domorder.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT item_id, name, price, quantity
        FROM order_items WHERE order_id = ?
        ORDER BY position
    `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domorder.LineItem
	for rows.Next() {
		var item domorder.LineItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domorder.Order, error) {
	var o domorder.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Amount, &o.Address, &o.Payment, &o.Status, &o.SessionID, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}
