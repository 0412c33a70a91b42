package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5"
)

// mockCartStore keeps carts and menu items in maps and counts writes.
type mockCartStore struct {
	carts   map[uuid.UUID]database.Cart
	menu    map[uuid.UUID]database.MenuItem
	upserts int
	deletes int
	getErr  error
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{
		carts: map[uuid.UUID]database.Cart{},
		menu:  map[uuid.UUID]database.MenuItem{},
	}
}

func (m *mockCartStore) GetCart(ctx context.Context, userID uuid.UUID) (database.Cart, error) {
	if m.getErr != nil {
		return database.Cart{}, m.getErr
	}
	c, ok := m.carts[userID]
	if !ok {
		return database.Cart{}, pgx.ErrNoRows
	}
	// Hand out a copy so the service cannot mutate stored state in place.
	items := make(map[string]database.CartEntry, len(c.Items))
	for k, v := range c.Items {
		items[k] = v
	}
	c.Items = items
	return c, nil
}

func (m *mockCartStore) UpsertCart(ctx context.Context, arg database.UpsertCartParams) (database.Cart, error) {
	m.upserts++
	c := database.Cart{UserID: arg.UserID, Items: arg.Items}
	m.carts[arg.UserID] = c
	return c, nil
}

func (m *mockCartStore) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	m.deletes++
	delete(m.carts, userID)
	return nil
}

func (m *mockCartStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	item, ok := m.menu[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (m *mockCartStore) addItem(name, price string, stock int32) uuid.UUID {
	id := uuid.New()
	m.menu[id] = database.MenuItem{
		ID:           id,
		Name:         name,
		Category:     "snacks",
		SellingPrice: makeNumeric(price),
		Quantity:     stock,
		Available:    true,
	}
	return id
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	topic string
	event ws.Event
}

func (m *mockPublisher) Publish(topic string, event ws.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{topic: topic, event: event})
}

func TestCartService_AddItem(t *testing.T) {
	store := newMockCartStore()
	pub := &mockPublisher{}
	svc := NewCartService(store, pub)
	user := uuid.New()
	item := store.addItem("Maggi", "40", 5)
	ctx := context.Background()

	cart, res, err := svc.AddItem(ctx, user, item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StockLimitReached {
		t.Fatal("stock limit should not be reached")
	}
	cart, _, err = svc.AddItem(ctx, user, item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v, want one entry with quantity 2", cart.Items)
	}
	if cart.Count != 2 {
		t.Errorf("count = %d, want 2", cart.Count)
	}
	if cart.Subtotal.String() != "80" {
		t.Errorf("subtotal = %s, want 80", cart.Subtotal)
	}
	if cart.Items[0].Name != "Maggi" {
		t.Errorf("name = %q", cart.Items[0].Name)
	}
	if len(pub.events) != 2 {
		t.Fatalf("events = %d, want 2", len(pub.events))
	}
	if pub.events[0].topic != ws.CartTopic(user) || pub.events[0].event.Type != ws.EventCartUpdated {
		t.Errorf("event = %+v", pub.events[0])
	}
}

func TestCartService_AddItemStopsAtStock(t *testing.T) {
	store := newMockCartStore()
	svc := NewCartService(store, nil)
	user := uuid.New()
	item := store.addItem("Paneer Roll", "70", 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := svc.AddItem(ctx, user, item); err != nil {
			t.Fatal(err)
		}
	}
	writes := store.upserts

	cart, res, err := svc.AddItem(ctx, user, item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.StockLimitReached || res.Available != 2 {
		t.Errorf("result = %+v, want stock limit reached with 2 available", res)
	}
	if cart.Count != 2 {
		t.Errorf("count = %d, want 2", cart.Count)
	}
	if store.upserts != writes {
		t.Error("a refused add must not write the cart")
	}
}

func TestCartService_AddItemOutOfStockOrUnavailable(t *testing.T) {
	store := newMockCartStore()
	svc := NewCartService(store, nil)
	user := uuid.New()
	soldOut := store.addItem("Biryani", "120", 0)
	hidden := store.addItem("Lassi", "35", 10)
	m := store.menu[hidden]
	m.Available = false
	store.menu[hidden] = m

	tests := []struct {
		name string
		id   uuid.UUID
		want AddResult
	}{
		{"sold out", soldOut, AddResult{StockLimitReached: true, Available: 0}},
		{"unavailable", hidden, AddResult{Unavailable: true, Available: 10}},
	}
	for _, tt := range tests {
		_, res, err := svc.AddItem(context.Background(), user, tt.id)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if res != tt.want {
			t.Errorf("%s: result = %+v, want %+v", tt.name, res, tt.want)
		}
	}
	if store.upserts != 0 {
		t.Errorf("upserts = %d, want 0", store.upserts)
	}
}

func TestCartService_AddUnknownItem(t *testing.T) {
	svc := NewCartService(newMockCartStore(), nil)
	_, _, err := svc.AddItem(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCartService_RemoveItem(t *testing.T) {
	store := newMockCartStore()
	svc := NewCartService(store, nil)
	user := uuid.New()
	chai := store.addItem("Chai", "15", 10)
	poha := store.addItem("Poha", "30", 10)
	ctx := context.Background()

	for _, id := range []uuid.UUID{chai, chai, poha} {
		if _, _, err := svc.AddItem(ctx, user, id); err != nil {
			t.Fatal(err)
		}
	}

	cart, err := svc.RemoveItem(ctx, user, chai)
	if err != nil {
		t.Fatal(err)
	}
	if cart.Count != 2 {
		t.Errorf("count = %d, want 2", cart.Count)
	}

	cart, err = svc.RemoveItem(ctx, user, poha)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ID != chai {
		t.Errorf("items = %+v, want only chai", cart.Items)
	}

	cart, err = svc.RemoveItem(ctx, user, chai)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Items) != 0 || cart.Count != 0 {
		t.Errorf("cart should be empty, got %+v", cart)
	}
	if _, ok := store.carts[user]; ok {
		t.Error("empty cart document should be deleted")
	}
}

func TestCartService_RemoveMissingIsNoop(t *testing.T) {
	store := newMockCartStore()
	pub := &mockPublisher{}
	svc := NewCartService(store, pub)

	cart, err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("items = %+v", cart.Items)
	}
	if store.upserts+store.deletes != 0 {
		t.Error("no write expected")
	}
	if len(pub.events) != 0 {
		t.Error("no event expected")
	}
}

func TestCartService_GetAndClear(t *testing.T) {
	store := newMockCartStore()
	svc := NewCartService(store, nil)
	user := uuid.New()
	item := store.addItem("Momos", "60", 3)
	ctx := context.Background()

	empty, err := svc.GetCart(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Items) != 0 || !empty.Subtotal.IsZero() {
		t.Errorf("missing cart should be empty, got %+v", empty)
	}

	if _, _, err := svc.AddItem(ctx, user, item); err != nil {
		t.Fatal(err)
	}
	if err := svc.ClearCart(ctx, user); err != nil {
		t.Fatal(err)
	}
	after, err := svc.GetCart(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Items) != 0 {
		t.Errorf("cart should be cleared, got %+v", after.Items)
	}
}

func TestCartService_GetCartError(t *testing.T) {
	store := newMockCartStore()
	store.getErr = errors.New("connection reset")
	svc := NewCartService(store, nil)

	if _, err := svc.GetCart(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error")
	}
}
