package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/notify"
	"github.com/hostelbites/api/internal/validation"
	"github.com/hostelbites/api/internal/whatsapp"
)

// WhatsAppProber is satisfied by *whatsapp.Prober.
type WhatsAppProber interface {
	Probe(ctx context.Context, ten string) (whatsapp.Outcome, error)
}

// RelayConfig holds the sender and the fallback recipient for relayed emails.
type RelayConfig struct {
	From         string
	AdminAddress string
}

// RelayHandler serves the two public helper endpoints used by the storefront:
// the order email relay and the WhatsApp number check. Both answer 405 to
// anything but POST, so they are registered for every method.
type RelayHandler struct {
	mailer notify.Mailer
	prober WhatsAppProber
	cfg    RelayConfig
}

func NewRelayHandler(mailer notify.Mailer, prober WhatsAppProber, cfg RelayConfig) *RelayHandler {
	return &RelayHandler{mailer: mailer, prober: prober, cfg: cfg}
}

func (h *RelayHandler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/api/send-order-email", h.SendOrderEmail)
	r.HandleFunc("/api/verify-whatsapp", h.VerifyWhatsApp)
}

// --- Request / Response types ---

type sendOrderEmailRequest struct {
	OrderDetails notify.OrderSummary `json:"orderDetails"`
	ToEmail      string              `json:"toEmail" validate:"omitempty,email"`
}

type verifyWhatsAppRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type verifyWhatsAppResponse struct {
	Success    bool   `json:"success"`
	Normalized string `json:"normalized,omitempty"`
	Message    string `json:"message"`
}

const invalidPhoneMessage = "Invalid phone number format. It should be a valid 10-digit Indian number."

// --- Handlers ---

// SendOrderEmail renders the admin order email from the posted summary and
// sends it to toEmail, or to the configured admin address when omitted.
func (h *RelayHandler) SendOrderEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
		return
	}

	var req sendOrderEmailRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	if err := validation.Struct(req); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": verrs.Error(), "fields": verrs})
			return
		}
		writeInternalError(w, r, "validate email relay", err)
		return
	}

	to := strings.TrimSpace(req.ToEmail)
	if to == "" {
		to = h.cfg.AdminAddress
	}
	if to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "toEmail is required"})
		return
	}

	subject, html, err := notify.OrderEmail(req.OrderDetails)
	if err == nil {
		err = h.mailer.Send(r.Context(), notify.Email{
			From:    h.cfg.From,
			To:      []string{to},
			Subject: subject,
			HTML:    html,
		})
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("email relay send failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Error sending email",
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully"})
}

// VerifyWhatsApp normalises the number and runs the wa.me heuristic. A
// failed or errored probe is still a 200 with success=false.
func (h *RelayHandler) VerifyWhatsApp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, verifyWhatsAppResponse{Message: "Method Not Allowed"})
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logging.Ctx(r.Context()).Error().Interface("panic", rec).Msg("whatsapp verification panicked")
			writeJSON(w, http.StatusInternalServerError, verifyWhatsAppResponse{Message: "Server error during verification."})
		}
	}()

	var req verifyWhatsAppRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, verifyWhatsAppResponse{Message: invalidPhoneMessage})
		return
	}

	ten, err := whatsapp.Normalize(req.PhoneNumber)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, verifyWhatsAppResponse{Message: invalidPhoneMessage})
		return
	}

	outcome, err := h.prober.Probe(r.Context(), ten)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("whatsapp probe failed")
	}
	writeJSON(w, http.StatusOK, verifyWhatsAppResponse{
		Success:    outcome == whatsapp.Reachable,
		Normalized: ten,
		Message:    outcome.Message(),
	})
}
