package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/handler"
	"github.com/hostelbites/api/internal/middleware"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock store ---

type mockMenuStore struct {
	items      map[uuid.UUID]database.MenuItem
	lastFilter pgtype.Text
}

func newMockMenuStore() *mockMenuStore {
	return &mockMenuStore{items: make(map[uuid.UUID]database.MenuItem)}
}

func (m *mockMenuStore) add(name, category, price string, qty int32) database.MenuItem {
	item := database.MenuItem{
		ID:           uuid.New(),
		Name:         name,
		Category:     category,
		Mrp:          numeric(price),
		SellingPrice: numeric(price),
		Quantity:     qty,
		Available:    true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.items[item.ID] = item
	return item
}

func (m *mockMenuStore) ListMenuItems(_ context.Context, category pgtype.Text) ([]database.MenuItem, error) {
	m.lastFilter = category
	var out []database.MenuItem
	for _, it := range m.items {
		if category.Valid && it.Category != category.String {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *mockMenuStore) GetMenuItem(_ context.Context, id uuid.UUID) (database.MenuItem, error) {
	it, ok := m.items[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockMenuStore) CreateMenuItem(_ context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	it := database.MenuItem{
		ID:           uuid.New(),
		Name:         arg.Name,
		Description:  arg.Description,
		Category:     arg.Category,
		Mrp:          arg.Mrp,
		SellingPrice: arg.SellingPrice,
		Quantity:     arg.Quantity,
		Available:    arg.Available,
		ImageUrl:     arg.ImageUrl,
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *mockMenuStore) UpdateMenuItem(_ context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	it, ok := m.items[arg.ID]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	it.Name = arg.Name
	it.Category = arg.Category
	it.Mrp = arg.Mrp
	it.SellingPrice = arg.SellingPrice
	it.Quantity = arg.Quantity
	it.Available = arg.Available
	m.items[arg.ID] = it
	return it, nil
}

func (m *mockMenuStore) DeleteMenuItem(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.items[id]; !ok {
		return 0, nil
	}
	delete(m.items, id)
	return 1, nil
}

func setupMenuRouter(store *mockMenuStore, pub *mockPublisher) *chi.Mux {
	h := handler.NewMenuHandler(store, pub)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		h.RegisterAdminRoutes(r)
	})
	return r
}

// --- Read tests ---

func TestMenuList_FiltersByCategory(t *testing.T) {
	store := newMockMenuStore()
	store.add("Maggi", "noodles", "40", 10)
	store.add("Chai", "beverages", "15", 50)
	r := setupMenuRouter(store, nil)

	rr := doAuthRequest(t, r, "GET", "/menu?category=beverages", nil, userClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	items := decodeList(t, rr)
	if len(items) != 1 || items[0]["name"] != "Chai" {
		t.Errorf("items = %v", items)
	}
	if items[0]["selling_price"] != "15.00" {
		t.Errorf("selling_price: got %v, want 15.00", items[0]["selling_price"])
	}
	if !store.lastFilter.Valid || store.lastFilter.String != "beverages" {
		t.Errorf("filter = %+v", store.lastFilter)
	}
}

func TestMenuGet(t *testing.T) {
	store := newMockMenuStore()
	item := store.add("Maggi", "noodles", "40", 10)
	r := setupMenuRouter(store, nil)

	rr := doAuthRequest(t, r, "GET", "/menu/"+item.ID.String(), nil, userClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp["quantity"] != float64(10) {
		t.Errorf("quantity: got %v", resp["quantity"])
	}

	rr = doAuthRequest(t, r, "GET", "/menu/"+uuid.NewString(), nil, userClaims())
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing item status: got %d, want 404", rr.Code)
	}

	rr = doAuthRequest(t, r, "GET", "/menu/not-a-uuid", nil, userClaims())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad id status: got %d, want 400", rr.Code)
	}
}

// --- Admin tests ---

func TestMenuCreate_PublishesUpdate(t *testing.T) {
	store := newMockMenuStore()
	pub := &mockPublisher{}
	r := setupMenuRouter(store, pub)

	rr := doAuthRequest(t, r, "POST", "/admin/menu", map[string]interface{}{
		"name":          "Paneer Roll",
		"category":      "rolls",
		"mrp":           "70",
		"selling_price": "60.5",
		"quantity":      12,
	}, adminClaims())

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["selling_price"] != "60.50" || resp["available"] != true {
		t.Errorf("resp = %v", resp)
	}
	ev := pub.last(t)
	if ev.topic != ws.TopicMenu || ev.eventType != ws.EventMenuUpdated {
		t.Errorf("event = %s/%s", ev.topic, ev.eventType)
	}
}

func TestMenuCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"category": "x", "mrp": "10", "selling_price": "10"}},
		{"negative price", map[string]interface{}{"name": "x", "category": "x", "mrp": "10", "selling_price": "-1"}},
		{"price above mrp", map[string]interface{}{"name": "x", "category": "x", "mrp": "10", "selling_price": "11"}},
		{"garbage price", map[string]interface{}{"name": "x", "category": "x", "mrp": "ten", "selling_price": "10"}},
		{"negative quantity", map[string]interface{}{"name": "x", "category": "x", "mrp": "10", "selling_price": "10", "quantity": -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupMenuRouter(newMockMenuStore(), nil)
			rr := doAuthRequest(t, r, "POST", "/admin/menu", tt.body, adminClaims())
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400; body: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestMenuCreate_ForbiddenForUsers(t *testing.T) {
	r := setupMenuRouter(newMockMenuStore(), nil)

	rr := doAuthRequest(t, r, "POST", "/admin/menu", map[string]interface{}{
		"name": "x", "category": "x", "mrp": "10", "selling_price": "10",
	}, userClaims())
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestMenuUpdate_SetsStock(t *testing.T) {
	store := newMockMenuStore()
	item := store.add("Maggi", "noodles", "40", 10)
	r := setupMenuRouter(store, nil)

	rr := doAuthRequest(t, r, "PUT", "/admin/menu/"+item.ID.String(), map[string]interface{}{
		"name": "Maggi", "category": "noodles", "mrp": "40", "selling_price": "35", "quantity": 25, "available": false,
	}, adminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if got := store.items[item.ID]; got.Quantity != 25 || got.Available {
		t.Errorf("stored = %+v", got)
	}
}

func TestMenuDelete(t *testing.T) {
	store := newMockMenuStore()
	item := store.add("Maggi", "noodles", "40", 10)
	pub := &mockPublisher{}
	r := setupMenuRouter(store, pub)

	rr := doAuthRequest(t, r, "DELETE", "/admin/menu/"+item.ID.String(), nil, adminClaims())
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d", rr.Code)
	}
	if pub.last(t).eventType != ws.EventMenuDeleted {
		t.Error("expected menu.deleted event")
	}

	rr = doAuthRequest(t, r, "DELETE", "/admin/menu/"+item.ID.String(), nil, adminClaims())
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rr.Code)
	}
}
