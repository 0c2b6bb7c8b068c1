package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

// HeaderUserID carries the owning user; authentication happens upstream.
const HeaderUserID = "X-User-Id"

type ctxKey struct{}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get(HeaderUserID)
		if uid == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderUserID})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, uid)))
	})
}

func userID(r *http.Request) string {
	uid, _ := r.Context().Value(ctxKey{}).(string)
	return uid
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

// writeError maps the ledger's error taxonomy onto status codes.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var (
		batch    *orders.BatchError
		capacity *orders.CapacityError
	)
	switch {
	case errors.As(err, &batch):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   batch.Err.Error(),
			"index":   batch.Index,
			"applied": batch.Applied,
			"skipped": batch.Skipped,
		})
	case errors.Is(err, orders.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, orders.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &capacity):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":         err.Error(),
			"order_item_id": capacity.OrderItemID,
			"requested":     capacity.Requested,
			"available":     capacity.Available,
		})
	case errors.Is(err, orders.ErrFetch):
		log.Warn("snapshot fetch failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error(), "retryable": true})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
