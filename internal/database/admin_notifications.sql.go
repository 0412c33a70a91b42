package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const adminNotificationColumns = `id, type, order_id, user_id, user_name, total, items_count, handled, result, handled_by, handled_at, created_at`

func scanAdminNotification(row pgx.Row) (AdminNotification, error) {
	var i AdminNotification
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.OrderID,
		&i.UserID,
		&i.UserName,
		&i.Total,
		&i.ItemsCount,
		&i.Handled,
		&i.Result,
		&i.HandledBy,
		&i.HandledAt,
		&i.CreatedAt,
	)
	return i, err
}

const createAdminNotification = `INSERT INTO admin_notifications (type, order_id, user_id, user_name, total, items_count)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + adminNotificationColumns

type CreateAdminNotificationParams struct {
	Type       string         `json:"type"`
	OrderID    uuid.UUID      `json:"order_id"`
	UserID     uuid.UUID      `json:"user_id"`
	UserName   string         `json:"user_name"`
	Total      pgtype.Numeric `json:"total"`
	ItemsCount int32          `json:"items_count"`
}

func (q *Queries) CreateAdminNotification(ctx context.Context, arg CreateAdminNotificationParams) (AdminNotification, error) {
	return scanAdminNotification(q.db.QueryRow(ctx, createAdminNotification,
		arg.Type,
		arg.OrderID,
		arg.UserID,
		arg.UserName,
		arg.Total,
		arg.ItemsCount,
	))
}

const listAdminNotifications = `SELECT ` + adminNotificationColumns + ` FROM admin_notifications
WHERE ($1::boolean IS NULL OR handled = $1)
ORDER BY created_at DESC
LIMIT $2`

type ListAdminNotificationsParams struct {
	Handled pgtype.Bool `json:"handled"`
	Limit   int32       `json:"limit"`
}

func (q *Queries) ListAdminNotifications(ctx context.Context, arg ListAdminNotificationsParams) ([]AdminNotification, error) {
	rows, err := q.db.Query(ctx, listAdminNotifications, arg.Handled, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AdminNotification{}
	for rows.Next() {
		i, err := scanAdminNotification(rows)
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

const getAdminNotification = `SELECT ` + adminNotificationColumns + ` FROM admin_notifications WHERE id = $1`

func (q *Queries) GetAdminNotification(ctx context.Context, id uuid.UUID) (AdminNotification, error) {
	return scanAdminNotification(q.db.QueryRow(ctx, getAdminNotification, id))
}

// Only unhandled rows match, so a second handle attempt returns no row.
const markAdminNotificationHandled = `UPDATE admin_notifications
SET handled = true, result = $2, handled_by = $3, handled_at = now()
WHERE id = $1 AND handled = false
RETURNING ` + adminNotificationColumns

type MarkAdminNotificationHandledParams struct {
	ID        uuid.UUID `json:"id"`
	Result    string    `json:"result"`
	HandledBy uuid.UUID `json:"handled_by"`
}

func (q *Queries) MarkAdminNotificationHandled(ctx context.Context, arg MarkAdminNotificationHandledParams) (AdminNotification, error) {
	return scanAdminNotification(q.db.QueryRow(ctx, markAdminNotificationHandled, arg.ID, arg.Result, arg.HandledBy))
}

// Undoes a claim made by MarkAdminNotificationHandled when the order action
// behind it fails. Only the claimant's row matches.
const releaseAdminNotification = `UPDATE admin_notifications
SET handled = false, result = NULL, handled_by = NULL, handled_at = NULL
WHERE id = $1 AND handled = true AND handled_by = $2`

type ReleaseAdminNotificationParams struct {
	ID        uuid.UUID `json:"id"`
	HandledBy uuid.UUID `json:"handled_by"`
}

func (q *Queries) ReleaseAdminNotification(ctx context.Context, arg ReleaseAdminNotificationParams) error {
	_, err := q.db.Exec(ctx, releaseAdminNotification, arg.ID, arg.HandledBy)
	return err
}
