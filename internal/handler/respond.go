package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/service"
	"github.com/hostelbites/api/internal/validation"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body into v and runs struct validation. On
// failure it writes the 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validation.Struct(v); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": verrs.Error(), "fields": verrs})
			return false
		}
		logging.Error().Err(err).Msg("validate request")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return false
	}
	return true
}

// urlUUID parses a chi URL parameter. On failure it writes a 400 naming
// what and returns false.
func urlUUID(w http.ResponseWriter, r *http.Request, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service errors to HTTP statuses. Unexpected errors
// are logged here, once.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"item_id":   stockErr.ItemID,
			"item_name": stockErr.Name,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrStatusChanged),
		errors.Is(err, service.ErrOrderNotTerminal),
		errors.Is(err, service.ErrNotificationHandled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTransactionConflict):
		logging.Ctx(r.Context()).Warn().Err(err).Str("op", op).Msg("transaction conflict")
		writeError(w, http.StatusConflict, service.ErrTransactionConflict.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// numericToString formats money with 2 decimal places.
func numericToString(n pgtype.Numeric) string {
	return database.NumericToDecimal(n).StringFixed(2)
}

var errNegativePrice = errors.New("negative price")

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// parsePagination reads ?limit= and ?offset=, falling back to def and
// capping limit at max. Offsets past the int32 range are capped there.
// Bad values are ignored.
func parsePagination(r *http.Request, def, max int) (limit, offset int) {
	limit = def
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > max {
		limit = max
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		switch {
		case err == nil && v >= 0:
			offset = int(v)
		case errors.Is(err, strconv.ErrRange) && v > 0:
			offset = math.MaxInt32
		}
	}
	return limit, offset
}
