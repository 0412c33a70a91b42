package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hostelbites/api/internal/breaker"
	"github.com/sony/gobreaker/v2"
)

// Email is one outgoing message.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Mailer sends email. Satisfied by *ResendMailer.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// ResendMailer sends through the Resend HTTP API behind a circuit breaker.
type ResendMailer struct {
	url    string
	apiKey string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[struct{}]
}

func NewResendMailer(url, apiKey string, timeout time.Duration) *ResendMailer {
	return &ResendMailer{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		cb:     breaker.New[struct{}]("resend"),
	}
}

// APIError is a non-2xx answer from the mail API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend: status %d: %s", e.StatusCode, e.Body)
}

func (m *ResendMailer) Send(ctx context.Context, email Email) error {
	if m.apiKey == "" {
		return fmt.Errorf("resend: api key not configured")
	}
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	_, err = m.cb.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return struct{}{}, &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
