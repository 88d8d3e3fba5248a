package webpay

// Package webpay is a REST client for Transbank Webpay Plus. The flow is
// token based: Create returns a token and a gateway URL, the buyer is sent
// there with a form POST of token_ws, and the gateway redirects back with the
// same token for Commit.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// IntegrationBaseURL is Transbank's sandbox environment.
	IntegrationBaseURL = "https://webpay3gint.transbank.cl"
	// ProductionBaseURL serves live traffic.
	ProductionBaseURL = "https://webpay3g.transbank.cl"

	// IntegrationCommerceCode and IntegrationAPIKey are Transbank's published
	// sandbox credentials, valid for any integration-environment merchant.
	IntegrationCommerceCode = "597055555532"
	IntegrationAPIKey       = "579B532A7440BB0C9079DED94D31EA1615BACEB56610332264630D42D0A36B1C"

	transactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"

	// maxBuyOrderLen and maxSessionIDLen are wire limits enforced by the
	// gateway; longer values are rejected with a 422.
	maxBuyOrderLen  = 26
	maxSessionIDLen = 61
)

type Config struct {
	BaseURL      string
	CommerceCode string
	APIKey       string
}

type Client struct {
	baseURL      string
	commerceCode string
	apiKey       string
	httpClient   *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = IntegrationBaseURL
	}
	return &Client{
		baseURL:      baseURL,
		commerceCode: cfg.CommerceCode,
		apiKey:       cfg.APIKey,
		httpClient:   httpClient,
	}
}

// CreateResponse carries the token the storefront must form-POST as token_ws
// to URL.
type CreateResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// Create opens a transaction. buyOrder and sessionID are truncated to the
// gateway's wire limits before sending.
func (c *Client) Create(ctx context.Context, buyOrder, sessionID string, amount int, returnURL string) (*CreateResponse, error) {
	body := map[string]any{
		"buy_order":  TruncateBuyOrder(buyOrder),
		"session_id": truncate(sessionID, maxSessionIDLen),
		"amount":     amount,
		"return_url": returnURL,
	}
	var out CreateResponse
	if err := c.do(ctx, http.MethodPost, transactionsPath, body, &out); err != nil {
		return nil, fmt.Errorf("failed to create webpay transaction: %w", err)
	}
	if out.Token == "" || out.URL == "" {
		return nil, fmt.Errorf("webpay create returned empty token or url")
	}
	return &out, nil
}

// CommitResponse is the authoritative transaction outcome.
type CommitResponse struct {
	VCI        string `json:"vci"`
	Amount     int    `json:"amount"`
	Status     string `json:"status"`
	BuyOrder   string `json:"buy_order"`
	SessionID  string `json:"session_id"`
	CardDetail struct {
		CardNumber string `json:"card_number"`
	} `json:"card_detail"`
	AccountingDate     string    `json:"accounting_date"`
	TransactionDate    time.Time `json:"transaction_date"`
	AuthorizationCode  string    `json:"authorization_code"`
	PaymentTypeCode    string    `json:"payment_type_code"`
	ResponseCode       int       `json:"response_code"`
	InstallmentsNumber int       `json:"installments_number"`
}

// Approved reports whether the gateway authorized the payment.
func (r *CommitResponse) Approved() bool {
	return r.ResponseCode == 0
}

// Commit confirms a transaction after the buyer returns from the gateway.
func (c *Client) Commit(ctx context.Context, token string) (*CommitResponse, error) {
	if token == "" {
		return nil, fmt.Errorf("webpay token is required")
	}
	var out CommitResponse
	if err := c.do(ctx, http.MethodPut, transactionsPath+"/"+token, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to commit webpay transaction: %w", err)
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
	req.Header.Set("Tbk-Api-Key-Id", c.commerceCode)
	req.Header.Set("Tbk-Api-Key-Secret", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webpay returned %d: %s", resp.StatusCode, detail)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// PaymentMethodFor maps Transbank payment type codes to the local payment
// method vocabulary. VD is debit and VP prepaid; everything else is some
// flavor of credit.
func PaymentMethodFor(paymentTypeCode string) string {
	switch paymentTypeCode {
	case "VD":
		return "webpay_debit"
	case "VP":
		return "webpay_prepaid"
	default:
		return "webpay_credit"
	}
}

// NewSessionID builds a per-attempt session identifier within the gateway's
// 61-char limit.
func NewSessionID(orderID string) string {
	return truncate(fmt.Sprintf("session_%s_%d", orderID, time.Now().UnixNano()), maxSessionIDLen)
}

// TruncateBuyOrder enforces the gateway's 26-char buy_order limit.
func TruncateBuyOrder(buyOrder string) string {
	return truncate(buyOrder, maxBuyOrderLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
