package legacy

// Package legacy proxies order history from the Magento store that preceded
// this service. Read-only except for best-effort status comments.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrUpstreamAuth means Magento rejected the admin token.
	ErrUpstreamAuth = errors.New("magento rejected credentials")
	// ErrUpstream covers any other upstream failure.
	ErrUpstream = errors.New("magento request failed")
)

type Config struct {
	BaseURL    string
	AdminToken string
}

type Client struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		adminToken: cfg.AdminToken,
		httpClient: httpClient,
	}
}

// Order is the subset of a Magento order exposed through the history API,
// reshaped to match the local order payload.
type Order struct {
	IncrementID string      `json:"order_number"`
	Status      string      `json:"status"`
	Total       float64     `json:"total"`
	Currency    string      `json:"currency"`
	CreatedAt   string      `json:"created_at"`
	Items       []OrderItem `json:"items"`
}

type OrderItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

type searchResponse struct {
	Items []magentoOrder `json:"items"`
}

type magentoOrder struct {
	EntityID    int64   `json:"entity_id"`
	IncrementID string  `json:"increment_id"`
	Status      string  `json:"status"`
	GrandTotal  float64 `json:"grand_total"`
	Currency    string  `json:"order_currency_code"`
	CreatedAt   string  `json:"created_at"`
	Items       []struct {
		SKU     string  `json:"sku"`
		Name    string  `json:"name"`
		Price   float64 `json:"price"`
		QtyOrd  float64 `json:"qty_ordered"`
		Product string  `json:"product_type"`
	} `json:"items"`
}

// OrdersByEmail fetches a customer's historical orders via the Magento search
// API.
func (c *Client) OrdersByEmail(ctx context.Context, email string) ([]Order, error) {
	query := url.Values{}
	query.Set("searchCriteria[filter_groups][0][filters][0][field]", "customer_email")
	query.Set("searchCriteria[filter_groups][0][filters][0][value]", email)
	query.Set("searchCriteria[filter_groups][0][filters][0][condition_type]", "eq")
	query.Set("searchCriteria[sortOrders][0][field]", "created_at")
	query.Set("searchCriteria[sortOrders][0][direction]", "DESC")

	var out searchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/V1/orders?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(out.Items))
	for _, m := range out.Items {
		order := Order{
			IncrementID: m.IncrementID,
			Status:      m.Status,
			Total:       m.GrandTotal,
			Currency:    m.Currency,
			CreatedAt:   m.CreatedAt,
		}
		for _, item := range m.Items {
			// Configurable products appear twice; keep the parent line only.
			if item.Product == "simple" && len(m.Items) > 1 {
				continue
			}
			order.Items = append(order.Items, OrderItem{
				SKU:      item.SKU,
				Name:     item.Name,
				Price:    item.Price,
				Quantity: item.QtyOrd,
			})
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// AddOrderComment posts a status comment to a Magento order located by its
// increment ID. Callers treat failures as non-fatal.
func (c *Client) AddOrderComment(ctx context.Context, incrementID, comment string) error {
	query := url.Values{}
	query.Set("searchCriteria[filter_groups][0][filters][0][field]", "increment_id")
	query.Set("searchCriteria[filter_groups][0][filters][0][value]", incrementID)
	query.Set("searchCriteria[filter_groups][0][filters][0][condition_type]", "eq")

	var found searchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/V1/orders?"+query.Encode(), nil, &found); err != nil {
		return err
	}
	if len(found.Items) == 0 {
		return fmt.Errorf("%w: order %s not found", ErrUpstream, incrementID)
	}

	body := map[string]any{
		"statusHistory": map[string]any{
			"comment":              comment,
			"is_customer_notified": 0,
			"is_visible_on_front":  0,
		},
	}
	path := fmt.Sprintf("/rest/V1/orders/%d/comments", found.Items[0].EntityID)
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.adminToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUpstreamAuth
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, detail)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
