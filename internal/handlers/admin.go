package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/emarastore/emara/internal/db"
	"github.com/emarastore/emara/internal/services"
)

func (h *Handlers) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := db.ProductFilter{
		Search:   query.Get("search"),
		Category: query.Get("category"),
		Page:     intQueryParam(query.Get("page"), 1),
		Limit:    intQueryParam(query.Get("limit"), 20),
	}
	if raw := query.Get("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	products, total, err := h.adminService.ListProducts(r.Context(), filter)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list products", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []*db.Product{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

func (h *Handlers) AdminGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.adminService.GetProduct(r.Context(), id)
	if errors.Is(err, services.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to load product", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handlers) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var product db.Product
	if !decodeJSON(w, r, &product) {
		return
	}

	if err := h.adminService.CreateProduct(r.Context(), &product); err != nil {
		h.respondAdminError(w, r, err, "failed to create product")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (h *Handlers) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var product db.Product
	if !decodeJSON(w, r, &product) {
		return
	}
	product.ID = id

	if err := h.adminService.UpdateProduct(r.Context(), &product); err != nil {
		h.respondAdminError(w, r, err, "failed to update product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handlers) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteProduct(r.Context(), id); err != nil {
		h.respondAdminError(w, r, err, "failed to delete product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handlers) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := db.OrderFilter{
		PaymentStatus: query.Get("payment_status"),
		Page:          intQueryParam(query.Get("page"), 1),
		Limit:         intQueryParam(query.Get("limit"), 20),
	}

	orders, total, err := h.adminService.ListOrders(r.Context(), filter)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list orders", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*db.Order{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
		"page":   filter.Page,
		"limit":  filter.Limit,
	})
}

func (h *Handlers) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.adminService.GetOrder(r.Context(), id)
	if errors.Is(err, services.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to load order", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// AdminUpdateOrderStatus changes fulfillment state only; payment fields are
// never editable through the admin API.
func (h *Handlers) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.adminService.UpdateOrderStatus(r.Context(), id, payload.Status); err != nil {
		h.respondAdminError(w, r, err, "failed to update order status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": payload.Status})
}

func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.DashboardStats(r.Context())
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to compute stats", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) respondAdminError(w http.ResponseWriter, r *http.Request, err error, logMessage string) {
	var userErr services.UserError
	switch {
	case errors.As(err, &userErr):
		respondError(w, http.StatusBadRequest, userErr.Message)
	case errors.Is(err, services.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, services.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	default:
		h.loggerFromContext(r.Context()).Error(logMessage, "error", err)
		respondError(w, http.StatusInternalServerError, logMessage)
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func intQueryParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}
