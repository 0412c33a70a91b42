package database

import (
	"context"

	"github.com/google/uuid"
)

const getCart = `SELECT user_id, items, updated_at FROM carts WHERE user_id = $1`

func (q *Queries) GetCart(ctx context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, getCart, userID)
	var i Cart
	err := row.Scan(&i.UserID, &i.Items, &i.UpdatedAt)
	return i, err
}

const upsertCart = `INSERT INTO carts (user_id, items, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()
RETURNING user_id, items, updated_at`

type UpsertCartParams struct {
	UserID uuid.UUID            `json:"user_id"`
	Items  map[string]CartEntry `json:"items"`
}

func (q *Queries) UpsertCart(ctx context.Context, arg UpsertCartParams) (Cart, error) {
	row := q.db.QueryRow(ctx, upsertCart, arg.UserID, arg.Items)
	var i Cart
	err := row.Scan(&i.UserID, &i.Items, &i.UpdatedAt)
	return i, err
}

const deleteCart = `DELETE FROM carts WHERE user_id = $1`

func (q *Queries) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteCart, userID)
	return err
}
