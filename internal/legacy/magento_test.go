package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOrdersByEmail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer admin-token" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if got := q.Get("searchCriteria[filter_groups][0][filters][0][field]"); got != "customer_email" {
			t.Errorf("filter field = %q", got)
		}
		if got := q.Get("searchCriteria[filter_groups][0][filters][0][value]"); got != "ana@example.cl" {
			t.Errorf("filter value = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"items": []map[string]any{
				{
					"entity_id":           77,
					"increment_id":        "100004521",
					"status":              "complete",
					"grand_total":         35980.0,
					"order_currency_code": "CLP",
					"created_at":          "2023-11-02 18:22:10",
					"items": []map[string]any{
						{"sku": "EM-OLD-1", "name": "Blusa", "price": 17990.0, "qty_ordered": 2.0, "product_type": "configurable"},
						{"sku": "EM-OLD-1-M", "name": "Blusa", "price": 0.0, "qty_ordered": 2.0, "product_type": "simple"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, AdminToken: "admin-token"}, srv.Client())
	orders, err := client.OrdersByEmail(context.Background(), "ana@example.cl")
	if err != nil {
		t.Fatalf("OrdersByEmail: %v", err)
	}

	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}
	if orders[0].IncrementID != "100004521" {
		t.Errorf("IncrementID = %q", orders[0].IncrementID)
	}
	if len(orders[0].Items) != 1 {
		t.Fatalf("got %d items, want configurable parent only", len(orders[0].Items))
	}
	if orders[0].Items[0].SKU != "EM-OLD-1" {
		t.Errorf("item SKU = %q", orders[0].Items[0].SKU)
	}
}

func TestOrdersByEmailAuthFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"The consumer isn't authorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, AdminToken: "stale"}, srv.Client())
	_, err := client.OrdersByEmail(context.Background(), "ana@example.cl")
	if !errors.Is(err, ErrUpstreamAuth) {
		t.Fatalf("err = %v, want ErrUpstreamAuth", err)
	}
}

func TestOrdersByEmailUpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	_, err := client.OrdersByEmail(context.Background(), "ana@example.cl")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestAddOrderComment(t *testing.T) {
	t.Parallel()

	var commented bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"items": []map[string]any{{"entity_id": 42, "increment_id": "100004521"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/rest/V1/orders/42/comments":
			commented = true
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
			history, _ := body["statusHistory"].(map[string]any)
			if history["comment"] != "Pago confirmado" {
				t.Errorf("comment = %v", history["comment"])
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, AdminToken: "admin-token"}, srv.Client())
	if err := client.AddOrderComment(context.Background(), "100004521", "Pago confirmado"); err != nil {
		t.Fatalf("AddOrderComment: %v", err)
	}
	if !commented {
		t.Error("comment endpoint never hit")
	}
}

func TestAddOrderCommentUnknownOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}}) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	if err := client.AddOrderComment(context.Background(), "999", "x"); err == nil {
		t.Fatal("expected error for unknown order")
	}
}
