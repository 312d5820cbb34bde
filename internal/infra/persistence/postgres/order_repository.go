package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domorder "example.com/food-ordering/internal/domain/order"
)

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id::text, user_id, amount::text, address, payment, status, session_id, created_at`

func (r *OrderRepository) Create(ctx context.Context, o *domorder.Order) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, user_id, amount, address, payment, status, session_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, o.ID, o.UserID, o.Amount.String(), o.Address, o.Payment, string(o.Status), o.SessionID, o.CreatedAt)
		if err != nil {
			return err
		}

		if len(o.Items) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for i, item := range o.Items {
			batch.Queue(`
				INSERT INTO order_items (order_id, position, item_id, name, price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, o.ID, i, item.ItemID, item.Name, item.Price.String(), item.Quantity)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domorder.Order, error) {
	if !validID(id) {
		return nil, domorder.ErrOrderNotFound
	}
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domorder.ErrOrderNotFound
		}
		return nil, err
	}
	items, err := r.listOrderItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domorder.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *OrderRepository) List(ctx context.Context) ([]*domorder.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *OrderRepository) AttachSession(ctx context.Context, id string, sessionID string) error {
	if !validID(id) {
		return domorder.ErrOrderNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE orders SET session_id = $1 WHERE id = $2`, sessionID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domorder.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	if !validID(id) {
		return domorder.ErrOrderNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE orders SET payment = true WHERE id = $1 AND payment = false`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.finalizedOrNotFound(ctx, id)
	}
	return nil
}

func (r *OrderRepository) DeleteUnpaid(ctx context.Context, id string) error {
	if !validID(id) {
		return domorder.ErrOrderNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND payment = false`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.finalizedOrNotFound(ctx, id)
	}
	return nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domorder.Status) error {
	if !validID(id) {
		return domorder.ErrOrderNotFound
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2 AND status = $3 AND payment = true
	`, string(to), id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domorder.ErrOrderNotFound
	}
	return domorder.ErrStatusConflict
}

func (r *OrderRepository) finalizedOrNotFound(ctx context.Context, id string) error {
	var paid bool
	err := r.db.QueryRow(ctx, `SELECT payment FROM orders WHERE id = $1`, id).Scan(&paid)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domorder.ErrOrderNotFound
	case err != nil:
		return err
	case paid:
		return domorder.ErrAlreadyFinalized
	}
	return domorder.ErrStatusConflict
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*domorder.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domorder.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.listOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return orders, nil
}

// listOrderItems loads the items of several orders in one query, keyed by
// order id and kept in their original position.
func (r *OrderRepository) listOrderItems(ctx context.Context, orderIDs []string) (map[string][]domorder.LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id::text, item_id, name, price::text, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]domorder.LineItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var item domorder.LineItem
		if err := rows.Scan(&orderID, &item.ItemID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], item)
	}
	return items, rows.Err()
}

// validID reports whether id can name an order. Anything else cannot match
// a uuid column and is treated as absent.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func scanOrder(row pgx.Row) (*domorder.Order, error) {
	var o domorder.Order
	var status string
	if err := row.Scan(&o.ID, &o.UserID, &o.Amount, &o.Address, &o.Payment, &status, &o.SessionID, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = domorder.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}
