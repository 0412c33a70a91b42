package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getAppSettings = `SELECT id, upi_id, upi_qr_url, updated_at FROM app_settings WHERE id = 'app'`

func (q *Queries) GetAppSettings(ctx context.Context) (AppSetting, error) {
	row := q.db.QueryRow(ctx, getAppSettings)
	var i AppSetting
	err := row.Scan(&i.ID, &i.UpiID, &i.UpiQrUrl, &i.UpdatedAt)
	return i, err
}

// Null params leave the stored value untouched.
const upsertAppSettings = `INSERT INTO app_settings (id, upi_id, upi_qr_url, updated_at)
VALUES ('app', COALESCE($1::text, ''), COALESCE($2::text, ''), now())
ON CONFLICT (id) DO UPDATE SET
    upi_id = COALESCE($1::text, app_settings.upi_id),
    upi_qr_url = COALESCE($2::text, app_settings.upi_qr_url),
    updated_at = now()
RETURNING id, upi_id, upi_qr_url, updated_at`

type UpsertAppSettingsParams struct {
	UpiID    pgtype.Text `json:"upi_id"`
	UpiQrUrl pgtype.Text `json:"upi_qr_url"`
}

func (q *Queries) UpsertAppSettings(ctx context.Context, arg UpsertAppSettingsParams) (AppSetting, error) {
	row := q.db.QueryRow(ctx, upsertAppSettings, arg.UpiID, arg.UpiQrUrl)
	var i AppSetting
	err := row.Scan(&i.ID, &i.UpiID, &i.UpiQrUrl, &i.UpdatedAt)
	return i, err
}
