// Package whatsapp normalises Indian mobile numbers and runs a best-effort
// reachability probe against wa.me links. A positive probe is a heuristic,
// never proof of WhatsApp registration.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hostelbites/api/internal/breaker"
	"github.com/hostelbites/api/internal/validation"
	"github.com/sony/gobreaker/v2"
)

var ErrInvalidNumber = errors.New("invalid phone number format. It should be a valid 10-digit Indian number")

// Normalize strips every non-digit, drops a leading 91 from 12-digit input,
// and requires the remaining ten digits to start with 6-9.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	var ten string
	switch {
	case len(digits) == 10:
		ten = digits
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		ten = digits[2:]
	}
	if !validation.IsIndianMobile(ten) {
		return "", ErrInvalidNumber
	}
	return ten, nil
}

// Outcome of a probe.
type Outcome int

const (
	// Reachable means the wa.me link answered with a 2xx status.
	Reachable Outcome = iota
	// Unconfirmed means the link answered with a non-2xx status.
	Unconfirmed
	// ProbeError means the probe could not complete.
	ProbeError
)

func (o Outcome) Message() string {
	switch o {
	case Reachable:
		return "Heuristic: number likely reachable on WhatsApp."
	case Unconfirmed:
		return "Heuristic check failed. Could not confirm WhatsApp registration."
	default:
		return "Heuristic check error. Please verify manually."
	}
}

// Prober sends HEAD requests to <baseURL>/91<number>.
type Prober struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[int]
}

func NewProber(baseURL string, timeout time.Duration) *Prober {
	return &Prober{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb:      breaker.New[int]("whatsapp-probe"),
	}
}

// Probe checks a normalised ten digit number. The returned error, if any,
// explains a ProbeError outcome and is meant for logs only.
func (p *Prober) Probe(ctx context.Context, ten string) (Outcome, error) {
	status, err := p.cb.Execute(func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.baseURL+"/91"+ten, nil)
		if err != nil {
			return 0, err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return 0, err
		}
		resp.Body.Close()
		return resp.StatusCode, nil
	})
	if err != nil {
		return ProbeError, fmt.Errorf("probe wa.me: %w", err)
	}
	if status >= 200 && status < 300 {
		return Reachable, nil
	}
	return Unconfirmed, nil
}
