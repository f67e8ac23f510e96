package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutritrack/internal/dates"
	mw "nutritrack/internal/middleware"
	"nutritrack/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps service errors to status codes. Persistence failures are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case services.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := mw.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

func invalidDate(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Field: field})
}

// parseDate reads a YYYY-MM-DD value named field.
func parseDate(w http.ResponseWriter, field, raw string) (time.Time, bool) {
	if raw == "" {
		invalidDate(w, field, field+" is required (YYYY-MM-DD)")
		return time.Time{}, false
	}
	d, err := dates.Parse(raw)
	if err != nil {
		invalidDate(w, field, err.Error())
		return time.Time{}, false
	}
	return d, true
}

// localDate reads the client's current calendar date. Every request that can
// create or change a day's row names it, and it must be today somewhere on
// Earth at the server's clock.
func localDate(w http.ResponseWriter, raw string, now func() time.Time) (time.Time, bool) {
	d, ok := parseDate(w, "local_date", raw)
	if !ok {
		return time.Time{}, false
	}
	if !dates.Reachable(d, now()) {
		invalidDate(w, "local_date", "local_date "+raw+" is not the current date in any time zone")
		return time.Time{}, false
	}
	return d, true
}

// historyDate reads an optional date for read-only history endpoints. Past
// days are allowed; an absent value falls back to the current UTC day, which
// for clients west of UTC may already be tomorrow.
func historyDate(w http.ResponseWriter, field, raw string, now func() time.Time) (time.Time, bool) {
	if raw == "" {
		return dates.Day(now().UTC()), true
	}
	d, ok := parseDate(w, field, raw)
	if !ok {
		return time.Time{}, false
	}
	if dates.Future(d, now()) {
		invalidDate(w, field, field+" "+raw+" is in the future")
		return time.Time{}, false
	}
	return d, true
}
