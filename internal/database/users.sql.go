package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, name, hashed_password, role, room_number, whatsapp, photo_url, created_at`

func scanUser(row pgx.Row) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.HashedPassword,
		&i.Role,
		&i.RoomNumber,
		&i.Whatsapp,
		&i.PhotoURL,
		&i.CreatedAt,
	)
	return i, err
}

const createUser = `INSERT INTO users (email, name, hashed_password, role, room_number, whatsapp)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	HashedPassword string `json:"hashed_password"`
	Role           string `json:"role"`
	RoomNumber     string `json:"room_number"`
	Whatsapp       string `json:"whatsapp"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser,
		arg.Email,
		arg.Name,
		arg.HashedPassword,
		arg.Role,
		arg.RoomNumber,
		arg.Whatsapp,
	))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []User{}
	for rows.Next() {
		i, err := scanUser(rows)
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

// Null params leave the column unchanged.
const updateUserProfile = `UPDATE users
SET name = COALESCE($2, name),
    photo_url = COALESCE($3, photo_url),
    room_number = COALESCE($4, room_number),
    whatsapp = COALESCE($5, whatsapp)
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserProfileParams struct {
	ID         uuid.UUID   `json:"id"`
	Name       pgtype.Text `json:"name"`
	PhotoURL   pgtype.Text `json:"photo_url"`
	RoomNumber pgtype.Text `json:"room_number"`
	Whatsapp   pgtype.Text `json:"whatsapp"`
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUserProfile,
		arg.ID,
		arg.Name,
		arg.PhotoURL,
		arg.RoomNumber,
		arg.Whatsapp,
	))
}
