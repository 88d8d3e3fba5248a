package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/emarastore/emara/internal/services"
)

// CreatePayment opens a payment with the configured gateway for a pending
// order.
func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OrderID string `json:"order_id"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order_id")
		return
	}

	result, err := h.paymentService.Initiate(r.Context(), orderID)
	if err != nil {
		h.respondPaymentError(w, r, err, "failed to initiate payment")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// WebpayCommit handles the gateway return. Transbank redirects with token_ws
// as a form POST on success and as a query parameter on some abort flows, so
// both are accepted.
func (h *Handlers) WebpayCommit(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token_ws")
	if token == "" && r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			token = r.PostFormValue("token_ws")
		}
	}
	if token == "" {
		// TBK_TOKEN without token_ws means the buyer aborted at the gateway.
		if aborted := r.URL.Query().Get("TBK_ORDEN_COMPRA"); aborted != "" {
			respondJSON(w, http.StatusOK, map[string]any{
				"status":       "aborted",
				"order_number": aborted,
			})
			return
		}
		respondError(w, http.StatusBadRequest, "token_ws is required")
		return
	}

	order, err := h.paymentService.ConfirmWebpay(r.Context(), token)
	if err != nil {
		h.respondPaymentError(w, r, err, "failed to confirm payment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handlers) respondPaymentError(w http.ResponseWriter, r *http.Request, err error, logMessage string) {
	var userErr services.UserError
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &userErr):
		respondError(w, http.StatusConflict, userErr.Message)
	case errors.Is(err, services.ErrPaymentGateway):
		h.loggerFromContext(r.Context()).Error(logMessage, "error", err)
		respondError(w, http.StatusBadGateway, "payment gateway unavailable")
	default:
		h.loggerFromContext(r.Context()).Error(logMessage, "error", err)
		respondError(w, http.StatusInternalServerError, logMessage)
	}
}
