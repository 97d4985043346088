package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookkeeper/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the engine's error taxonomy onto HTTP statuses and
// machine-readable codes. Anything untyped is a persistence or internal
// failure and surfaces as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *core.ValidationError
		notFound     *core.NotFoundError
		overlap      *core.OverlapError
		inconsistent *core.InconsistentLedgerError
		exceeds      *core.PaymentExceedsBalanceError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, r, validation.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.As(err, &notFound):
		writeError(w, r, notFound.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &overlap):
		writeError(w, r, overlap.Error(), "SERVICE_PERIOD_OVERLAP", http.StatusConflict)
	case errors.As(err, &inconsistent):
		writeError(w, r, inconsistent.Error(), "INCONSISTENT_LEDGER", http.StatusConflict)
	case errors.As(err, &exceeds):
		writeError(w, r, exceeds.Error(), "PAYMENT_EXCEEDS_BALANCE", http.StatusUnprocessableEntity)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
