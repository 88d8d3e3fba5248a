package handlers

import (
	"errors"
	"net/http"

	"github.com/emarastore/emara/internal/services"
)

// MercadoPagoWebhook receives payment notifications. The gateway retries
// until it sees a 2xx, so unknown orders are acknowledged rather than
// retried forever; only transient failures return 5xx.
func (h *Handlers) MercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	var event services.MercadoPagoEvent
	if !decodeJSON(w, r, &event) {
		return
	}

	err := h.paymentService.HandleMercadoPagoEvent(r.Context(), event)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, services.ErrOrderNotFound):
		h.loggerFromContext(r.Context()).Warn("webhook for unknown order", "error", err)
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	case errors.Is(err, services.ErrPaymentGateway):
		h.loggerFromContext(r.Context()).Error("webhook processing failed upstream", "error", err)
		respondError(w, http.StatusBadGateway, "payment lookup failed")
	default:
		h.loggerFromContext(r.Context()).Error("webhook processing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "webhook processing failed")
	}
}
