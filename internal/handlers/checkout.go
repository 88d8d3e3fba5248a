package handlers

import (
	"errors"
	"net/http"

	"github.com/emarastore/emara/internal/services"
)

// Checkout validates the storefront payload and writes the order.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var input services.CheckoutInput
	if !decodeJSON(w, r, &input) {
		return
	}

	order, err := h.checkoutService.PlaceOrder(r.Context(), input)
	if errors.Is(err, services.ErrValidation) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.loggerFromContext(r.Context()).Error("checkout failed", "error", err)
		respondError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"order": order})
}
