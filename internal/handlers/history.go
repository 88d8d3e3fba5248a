package handlers

import (
	"errors"
	"net/http"

	"github.com/emarastore/emara/internal/legacy"
	"github.com/emarastore/emara/internal/services"
)

// OrderHistory proxies historical orders from the legacy Magento store.
func (h *Handlers) OrderHistory(w http.ResponseWriter, r *http.Request) {
	if h.historyService == nil {
		respondError(w, http.StatusNotFound, "order history is not available")
		return
	}

	email := r.URL.Query().Get("email")
	orders, err := h.historyService.OrdersByEmail(r.Context(), email)
	switch {
	case errors.Is(err, services.ErrValidation):
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	case errors.Is(err, legacy.ErrUpstreamAuth):
		h.loggerFromContext(r.Context()).Error("legacy store rejected credentials", "error", err)
		respondError(w, http.StatusServiceUnavailable, "order history temporarily unavailable")
		return
	case err != nil:
		h.loggerFromContext(r.Context()).Error("legacy store fetch failed", "error", err)
		respondError(w, http.StatusBadGateway, "order history temporarily unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}
