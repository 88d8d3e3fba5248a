package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/emarastore/emara/internal/db"
)

// ListProducts serves the storefront catalog: active products, featured
// first, newest first.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category := query.Get("category")
	featuredOnly := query.Get("featured") == "true"

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	products, err := h.productStore.ListActive(r.Context(), category, featuredOnly, limit)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list products", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []*db.Product{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

// GetProduct serves a single active product by SKU.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]

	product, err := h.productStore.GetBySKU(r.Context(), sku)
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to load product", "sku", sku, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"product": product})
}
