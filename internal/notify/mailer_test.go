package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hostelbites/api/internal/breaker"
)

func TestResendMailer_Send(t *testing.T) {
	var got Email
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"49a3999c"}`))
	}))
	defer srv.Close()

	m := NewResendMailer(srv.URL, "re_test", time.Second)
	err := m.Send(context.Background(), Email{
		From:    "Hostel Bites <onboarding@resend.dev>",
		To:      []string{"admin@hostel.test"},
		Subject: "New Order from Asha",
		HTML:    "<h1>hi</h1>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Subject != "New Order from Asha" || len(got.To) != 1 || got.To[0] != "admin@hostel.test" {
		t.Errorf("sent = %+v", got)
	}
}

func TestResendMailer_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	m := NewResendMailer(srv.URL, "re_test", time.Second)
	err := m.Send(context.Background(), Email{To: []string{"nope"}})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}

func TestResendMailer_MissingKey(t *testing.T) {
	m := NewResendMailer("http://127.0.0.1:0", "", time.Second)
	if err := m.Send(context.Background(), Email{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestResendMailer_BreakerOpens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewResendMailer(srv.URL, "re_test", time.Second)
	var err error
	for i := 0; i < 7; i++ {
		err = m.Send(context.Background(), Email{})
	}
	if !breaker.IsOpen(err) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls != 5 {
		t.Errorf("server calls = %d, want 5", calls)
	}
}
