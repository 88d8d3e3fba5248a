package mercadopago

// Package mercadopago is a REST client for MercadoPago's hosted checkout.
// The flow is preference based: CreatePreference returns a redirect URL, and
// payment outcomes arrive asynchronously on a webhook that carries only a
// payment ID. GetPayment fetches the authoritative state.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.mercadopago.com"

// Payment statuses as reported by the payments API.
const (
	StatusApproved  = "approved"
	StatusPending   = "pending"
	StatusInProcess = "in_process"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

type Config struct {
	BaseURL     string
	AccessToken string
}

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
	}
}

// PreferenceItem is one checkout line. UnitPrice is in whole pesos; CLP has
// no minor unit.
type PreferenceItem struct {
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int    `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest creates a hosted checkout session. ExternalReference is
// the local order ID and is echoed back on every payment.
type PreferenceRequest struct {
	Items               []PreferenceItem `json:"items"`
	BackURLs            BackURLs         `json:"back_urls"`
	AutoReturn          string           `json:"auto_return,omitempty"`
	ExternalReference   string           `json:"external_reference"`
	NotificationURL     string           `json:"notification_url,omitempty"`
	StatementDescriptor string           `json:"statement_descriptor,omitempty"`
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	var out Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &out); err != nil {
		return nil, fmt.Errorf("failed to create mercadopago preference: %w", err)
	}
	if out.InitPoint == "" && out.SandboxInitPoint == "" {
		return nil, fmt.Errorf("mercadopago preference has no init point")
	}
	return &out, nil
}

// Payment is the authoritative payment record fetched after a webhook.
type Payment struct {
	ID                int64     `json:"id"`
	Status            string    `json:"status"`
	StatusDetail      string    `json:"status_detail"`
	ExternalReference string    `json:"external_reference"`
	PaymentTypeID     string    `json:"payment_type_id"`
	PaymentMethodID   string    `json:"payment_method_id"`
	TransactionAmount float64   `json:"transaction_amount"`
	DateApproved      time.Time `json:"date_approved,omitzero"`
	DateCreated       time.Time `json:"date_created,omitzero"`
	AuthorizationCode string    `json:"authorization_code"`
	Card              struct {
		LastFourDigits string `json:"last_four_digits"`
	} `json:"card"`
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}
	var out Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch mercadopago payment %s: %w", paymentID, err)
	}
	return &out, nil
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
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mercadopago returned %d: %s", resp.StatusCode, detail)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
