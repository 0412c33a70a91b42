package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, user_name, items, subtotal, delivery_charge, total_amount, order_type, status,
    payment_method, upi_transaction_id, notes, room_number, whatsapp, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.UserName,
		&i.Items,
		&i.Subtotal,
		&i.DeliveryCharge,
		&i.TotalAmount,
		&i.OrderType,
		&i.Status,
		&i.PaymentMethod,
		&i.UpiTransactionID,
		&i.Notes,
		&i.RoomNumber,
		&i.Whatsapp,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createOrder = `INSERT INTO orders (
    user_id, user_name, items, subtotal, delivery_charge, total_amount, order_type, status,
    payment_method, upi_transaction_id, notes, room_number, whatsapp
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	UserID           uuid.UUID      `json:"user_id"`
	UserName         string         `json:"user_name"`
	Items            []OrderLine    `json:"items"`
	Subtotal         pgtype.Numeric `json:"subtotal"`
	DeliveryCharge   pgtype.Numeric `json:"delivery_charge"`
	TotalAmount      pgtype.Numeric `json:"total_amount"`
	OrderType        string         `json:"order_type"`
	Status           string         `json:"status"`
	PaymentMethod    string         `json:"payment_method"`
	UpiTransactionID string         `json:"upi_transaction_id"`
	Notes            string         `json:"notes"`
	RoomNumber       string         `json:"room_number"`
	Whatsapp         string         `json:"whatsapp"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.UserID,
		arg.UserName,
		arg.Items,
		arg.Subtotal,
		arg.DeliveryCharge,
		arg.TotalAmount,
		arg.OrderType,
		arg.Status,
		arg.PaymentMethod,
		arg.UpiTransactionID,
		arg.Notes,
		arg.RoomNumber,
		arg.Whatsapp,
	))
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const listOrders = `SELECT ` + orderColumns + ` FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::uuid IS NULL OR user_id = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

type ListOrdersParams struct {
	Status pgtype.Text `json:"status"`
	UserID pgtype.UUID `json:"user_id"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// The status predicate makes this a compare-and-set: no row is returned
// when the order moved on since Status_2 was read.
const updateOrderStatus = `UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID       uuid.UUID `json:"id"`
	Status   string    `json:"status"`
	Status_2 string    `json:"status_2"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.Status_2))
}

const updateOrderDetails = `UPDATE orders
SET notes = COALESCE($2::text, notes),
    upi_transaction_id = COALESCE($3::text, upi_transaction_id),
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderDetailsParams struct {
	ID               uuid.UUID   `json:"id"`
	Notes            pgtype.Text `json:"notes"`
	UpiTransactionID pgtype.Text `json:"upi_transaction_id"`
}

func (q *Queries) UpdateOrderDetails(ctx context.Context, arg UpdateOrderDetailsParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderDetails, arg.ID, arg.Notes, arg.UpiTransactionID))
}

const deleteTerminalOrder = `DELETE FROM orders WHERE id = $1 AND status IN ('delivered', 'cancelled')`

func (q *Queries) DeleteTerminalOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTerminalOrder, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getOrderStatusCounts = `SELECT status, COUNT(*)::bigint AS order_count, COALESCE(SUM(total_amount), 0)::numeric AS total_amount
FROM orders
GROUP BY status`

type GetOrderStatusCountsRow struct {
	Status      string         `json:"status"`
	OrderCount  int64          `json:"order_count"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
}

func (q *Queries) GetOrderStatusCounts(ctx context.Context) ([]GetOrderStatusCountsRow, error) {
	rows, err := q.db.Query(ctx, getOrderStatusCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetOrderStatusCountsRow{}
	for rows.Next() {
		var i GetOrderStatusCountsRow
		if err := rows.Scan(&i.Status, &i.OrderCount, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTopSellingItems = `SELECT li->>'name' AS name,
       SUM((li->>'quantity')::int)::bigint AS quantity_sold,
       COALESCE(SUM((li->>'price')::numeric * (li->>'quantity')::int), 0)::numeric AS revenue
FROM orders o, jsonb_array_elements(o.items) AS li
GROUP BY li->>'name'
ORDER BY quantity_sold DESC, name
LIMIT $1`

type GetTopSellingItemsRow struct {
	Name         string         `json:"name"`
	QuantitySold int64          `json:"quantity_sold"`
	Revenue      pgtype.Numeric `json:"revenue"`
}

func (q *Queries) GetTopSellingItems(ctx context.Context, limit int32) ([]GetTopSellingItemsRow, error) {
	rows, err := q.db.Query(ctx, getTopSellingItems, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetTopSellingItemsRow{}
	for rows.Next() {
		var i GetTopSellingItemsRow
		if err := rows.Scan(&i.Name, &i.QuantitySold, &i.Revenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
