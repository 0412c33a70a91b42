package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, description, category, mrp, selling_price, quantity, available, image_url, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Category,
		&i.Mrp,
		&i.SellingPrice,
		&i.Quantity,
		&i.Available,
		&i.ImageUrl,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMenuItems = `SELECT ` + menuItemColumns + ` FROM menu_items
WHERE ($1::text IS NULL OR category = $1)
ORDER BY category, name`

func (q *Queries) ListMenuItems(ctx context.Context, category pgtype.Text) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
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

const getMenuItem = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const getMenuItemsByIDs = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ANY($1::uuid[]) ORDER BY id`

// GetMenuItemsByIDs returns the rows that exist; missing ids are simply absent.
func (q *Queries) GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, getMenuItemsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
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

const createMenuItem = `INSERT INTO menu_items (name, description, category, mrp, selling_price, quantity, available, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Mrp          pgtype.Numeric `json:"mrp"`
	SellingPrice pgtype.Numeric `json:"selling_price"`
	Quantity     int32          `json:"quantity"`
	Available    bool           `json:"available"`
	ImageUrl     string         `json:"image_url"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Description,
		arg.Category,
		arg.Mrp,
		arg.SellingPrice,
		arg.Quantity,
		arg.Available,
		arg.ImageUrl,
	))
}

const updateMenuItem = `UPDATE menu_items
SET name = $2, description = $3, category = $4, mrp = $5, selling_price = $6,
    quantity = $7, available = $8, image_url = $9, updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Mrp          pgtype.Numeric `json:"mrp"`
	SellingPrice pgtype.Numeric `json:"selling_price"`
	Quantity     int32          `json:"quantity"`
	Available    bool           `json:"available"`
	ImageUrl     string         `json:"image_url"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Category,
		arg.Mrp,
		arg.SellingPrice,
		arg.Quantity,
		arg.Available,
		arg.ImageUrl,
	))
}

const deleteMenuItem = `DELETE FROM menu_items WHERE id = $1`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteMenuItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setMenuItemQuantity = `UPDATE menu_items SET quantity = $2, updated_at = now() WHERE id = $1`

type SetMenuItemQuantityParams struct {
	ID       uuid.UUID `json:"id"`
	Quantity int32     `json:"quantity"`
}

func (q *Queries) SetMenuItemQuantity(ctx context.Context, arg SetMenuItemQuantityParams) error {
	_, err := q.db.Exec(ctx, setMenuItemQuantity, arg.ID, arg.Quantity)
	return err
}
