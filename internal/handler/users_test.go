package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
	"github.com/hostelbites/api/internal/handler"
	"github.com/hostelbites/api/internal/middleware"
)

type mockUserStore struct {
	users []database.User
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]database.User, error) {
	return m.users, nil
}

func setupUserRouter(store *mockUserStore) *chi.Mux {
	h := handler.NewUserHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		h.RegisterRoutes(r)
	})
	return r
}

func TestUserList(t *testing.T) {
	store := &mockUserStore{users: []database.User{
		{ID: uuid.New(), Email: "admin@hostel.test", Name: "Warden", Role: enum.UserRoleAdmin, HashedPassword: "x"},
		{ID: uuid.New(), Email: "asha@hostel.test", Name: "Asha", Role: enum.UserRoleUser, RoomNumber: "B-204", HashedPassword: "x"},
	}}
	r := setupUserRouter(store)

	rr := doAuthRequest(t, r, "GET", "/admin/users", nil, adminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	list := decodeList(t, rr)
	if len(list) != 2 {
		t.Fatalf("users = %d, want 2", len(list))
	}
	if _, ok := list[0]["hashed_password"]; ok {
		t.Error("hashed_password must not be returned")
	}

	rr = doAuthRequest(t, r, "GET", "/admin/users?role=user", nil, adminClaims())
	list = decodeList(t, rr)
	if len(list) != 1 || list[0]["room_number"] != "B-204" {
		t.Errorf("filtered = %v", list)
	}
}

func TestUserList_ForbiddenForUsers(t *testing.T) {
	rr := doAuthRequest(t, setupUserRouter(&mockUserStore{}), "GET", "/admin/users", nil, userClaims())
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}
