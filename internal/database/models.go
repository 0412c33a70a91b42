package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type AdminNotification struct {
	ID         uuid.UUID          `json:"id"`
	Type       string             `json:"type"`
	OrderID    uuid.UUID          `json:"order_id"`
	UserID     uuid.UUID          `json:"user_id"`
	UserName   string             `json:"user_name"`
	Total      pgtype.Numeric     `json:"total"`
	ItemsCount int32              `json:"items_count"`
	Handled    bool               `json:"handled"`
	Result     pgtype.Text        `json:"result"`
	HandledBy  pgtype.UUID        `json:"handled_by"`
	HandledAt  pgtype.Timestamptz `json:"handled_at"`
	CreatedAt  time.Time          `json:"created_at"`
}

type AppSetting struct {
	ID        string    `json:"id"`
	UpiID     string    `json:"upi_id"`
	UpiQrUrl  string    `json:"upi_qr_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cart is one document per user, written whole.
type Cart struct {
	UserID    uuid.UUID            `json:"user_id"`
	Items     map[string]CartEntry `json:"items"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CartEntry is stored inside carts.items (jsonb), keyed by menu item id.
type CartEntry struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Quantity     int32           `json:"quantity"`
	ImageURL     string          `json:"imageUrl"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	SortOrder int32     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MenuItem struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Mrp          pgtype.Numeric `json:"mrp"`
	SellingPrice pgtype.Numeric `json:"selling_price"`
	Quantity     int32          `json:"quantity"`
	Available    bool           `json:"available"`
	ImageUrl     string         `json:"image_url"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Notification struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	OrderID   pgtype.UUID `json:"order_id"`
	Icon      string      `json:"icon"`
	Color     string      `json:"color"`
	Read      bool        `json:"read"`
	CreatedAt time.Time   `json:"created_at"`
}

type Order struct {
	ID               uuid.UUID      `json:"id"`
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
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// OrderLine is the item snapshot stored inside orders.items (jsonb).
type OrderLine struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int32           `json:"quantity"`
	ImageURL string          `json:"imageUrl"`
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	HashedPassword string    `json:"hashed_password"`
	Role           string    `json:"role"`
	RoomNumber     string    `json:"room_number"`
	Whatsapp       string    `json:"whatsapp"`
	PhotoURL       string    `json:"photo_url"`
	CreatedAt      time.Time `json:"created_at"`
}
