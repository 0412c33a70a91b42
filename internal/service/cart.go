package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CartStore defines the DB methods needed by CartService.
type CartStore interface {
	GetCart(ctx context.Context, userID uuid.UUID) (database.Cart, error)
	UpsertCart(ctx context.Context, arg database.UpsertCartParams) (database.Cart, error)
	DeleteCart(ctx context.Context, userID uuid.UUID) error
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
}

// Cart is a user's cart with derived totals. Items are ordered by item id.
type Cart struct {
	UserID   uuid.UUID            `json:"user_id"`
	Items    []database.CartEntry `json:"items"`
	Count    int32                `json:"count"`
	Subtotal decimal.Decimal      `json:"subtotal"`
}

// AddResult reports a refused add. The cart is left untouched when
// StockLimitReached or Unavailable is set.
type AddResult struct {
	StockLimitReached bool  `json:"stock_limit_reached"`
	Unavailable       bool  `json:"unavailable"`
	Available         int32 `json:"available"`
}

// CartService manages the per-user cart document. Every mutation reads the
// whole document and writes it back; concurrent writers are last-write-wins.
type CartService struct {
	store CartStore
	pub   EventPublisher
}

func NewCartService(store CartStore, pub EventPublisher) *CartService {
	return &CartService{store: store, pub: pub}
}

// GetCart returns the user's cart; a missing document is an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (Cart, error) {
	items, err := s.load(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	return buildCart(userID, items), nil
}

// AddItem adds one unit of itemID. It refuses without writing when the cart
// already holds as many units as the item's last-known stock. This check is
// advisory; PlaceOrder is authoritative.
func (s *CartService) AddItem(ctx context.Context, userID, itemID uuid.UUID) (Cart, AddResult, error) {
	item, err := s.store.GetMenuItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, AddResult{}, &ItemNotFoundError{ItemID: itemID}
		}
		return Cart{}, AddResult{}, fmt.Errorf("get menu item: %w", err)
	}

	items, err := s.load(ctx, userID)
	if err != nil {
		return Cart{}, AddResult{}, err
	}

	key := itemID.String()
	entry, inCart := items[key]
	if !item.Available {
		return buildCart(userID, items), AddResult{Unavailable: true, Available: item.Quantity}, nil
	}
	if entry.Quantity >= item.Quantity {
		return buildCart(userID, items), AddResult{StockLimitReached: true, Available: item.Quantity}, nil
	}

	if !inCart {
		entry = database.CartEntry{ID: item.ID}
	}
	// Refresh the snapshot on every add so the cart shows current prices.
	entry.Name = item.Name
	entry.Category = item.Category
	entry.SellingPrice = database.NumericToDecimal(item.SellingPrice)
	entry.ImageURL = item.ImageUrl
	entry.Quantity++
	items[key] = entry

	cart, err := s.save(ctx, userID, items)
	if err != nil {
		return Cart{}, AddResult{}, err
	}
	return cart, AddResult{Available: item.Quantity}, nil
}

// RemoveItem removes one unit of itemID, dropping the entry at zero.
// Removing an item that is not in the cart is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (Cart, error) {
	items, err := s.load(ctx, userID)
	if err != nil {
		return Cart{}, err
	}

	key := itemID.String()
	entry, ok := items[key]
	if !ok {
		return buildCart(userID, items), nil
	}
	entry.Quantity--
	if entry.Quantity <= 0 {
		delete(items, key)
	} else {
		items[key] = entry
	}
	return s.save(ctx, userID, items)
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.DeleteCart(ctx, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	Publish(s.pub, ws.CartTopic(userID), ws.EventCartUpdated, buildCart(userID, nil))
	return nil
}

func (s *CartService) load(ctx context.Context, userID uuid.UUID) (map[string]database.CartEntry, error) {
	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]database.CartEntry{}, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if c.Items == nil {
		return map[string]database.CartEntry{}, nil
	}
	return c.Items, nil
}

func (s *CartService) save(ctx context.Context, userID uuid.UUID, items map[string]database.CartEntry) (Cart, error) {
	if len(items) == 0 {
		if err := s.store.DeleteCart(ctx, userID); err != nil {
			return Cart{}, fmt.Errorf("delete cart: %w", err)
		}
	} else {
		saved, err := s.store.UpsertCart(ctx, database.UpsertCartParams{UserID: userID, Items: items})
		if err != nil {
			return Cart{}, fmt.Errorf("upsert cart: %w", err)
		}
		items = saved.Items
	}

	cart := buildCart(userID, items)
	Publish(s.pub, ws.CartTopic(userID), ws.EventCartUpdated, cart)
	return cart, nil
}

func buildCart(userID uuid.UUID, items map[string]database.CartEntry) Cart {
	cart := Cart{
		UserID:   userID,
		Items:    sortedEntries(items),
		Subtotal: decimal.Zero,
	}
	for _, e := range cart.Items {
		cart.Count += e.Quantity
		cart.Subtotal = cart.Subtotal.Add(e.SellingPrice.Mul(decimal.NewFromInt32(e.Quantity)))
	}
	return cart
}
