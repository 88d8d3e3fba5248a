package webpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateSendsCredentialHeaders(t *testing.T) {
	t.Parallel()

	var gotHeaders http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/rswebpaytransaction/api/webpay/v1.2/transactions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
			"token": "tok-123",
			"url":   "https://webpay3gint.transbank.cl/webpayserver/initTransaction",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, CommerceCode: "597055555532", APIKey: "secret"}, srv.Client())
	resp, err := client.Create(context.Background(), "EMR-1-abcd", "session_1", 27790, "https://emara.cl/return")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if resp.Token != "tok-123" {
		t.Errorf("Token = %q", resp.Token)
	}
	if gotHeaders.Get("Tbk-Api-Key-Id") != "597055555532" {
		t.Errorf("Tbk-Api-Key-Id = %q", gotHeaders.Get("Tbk-Api-Key-Id"))
	}
	if gotHeaders.Get("Tbk-Api-Key-Secret") != "secret" {
		t.Errorf("Tbk-Api-Key-Secret = %q", gotHeaders.Get("Tbk-Api-Key-Secret"))
	}
	if gotBody["buy_order"] != "EMR-1-abcd" {
		t.Errorf("buy_order = %v", gotBody["buy_order"])
	}
	if gotBody["amount"] != float64(27790) {
		t.Errorf("amount = %v", gotBody["amount"])
	}
}

func TestCreateTruncatesWireLimits(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
		json.NewEncoder(w).Encode(map[string]string{"token": "t", "url": "u"}) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	longOrder := strings.Repeat("A", 40)
	longSession := strings.Repeat("B", 80)
	if _, err := client.Create(context.Background(), longOrder, longSession, 1000, "https://emara.cl/return"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := gotBody["buy_order"].(string); len(got) != 26 {
		t.Errorf("buy_order length = %d, want 26", len(got))
	}
	if got := gotBody["session_id"].(string); len(got) != 61 {
		t.Errorf("session_id length = %d, want 61", len(got))
	}
}

func TestCommit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/transactions/tok-123") {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"vci":                "TSY",
			"amount":             27790,
			"status":             "AUTHORIZED",
			"buy_order":          "EMR-1-abcd",
			"session_id":         "session_1",
			"card_detail":        map[string]string{"card_number": "6623"},
			"transaction_date":   "2026-08-30T14:12:00Z",
			"authorization_code": "1213",
			"payment_type_code":  "VD",
			"response_code":      0,
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	resp, err := client.Commit(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if !resp.Approved() {
		t.Error("Approved() = false for response_code 0")
	}
	if resp.CardDetail.CardNumber != "6623" {
		t.Errorf("CardNumber = %q", resp.CardDetail.CardNumber)
	}
	if resp.BuyOrder != "EMR-1-abcd" {
		t.Errorf("BuyOrder = %q", resp.BuyOrder)
	}
}

func TestCommitRejectedNotApproved(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response_code": -1, "status": "FAILED"}) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	resp, err := client.Commit(context.Background(), "tok-bad")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if resp.Approved() {
		t.Error("Approved() = true for response_code -1")
	}
}

func TestCommitGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_message":"Invalid value for parameter token"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	if _, err := client.Commit(context.Background(), "tok-unknown"); err == nil {
		t.Fatal("expected error for gateway 422")
	}
}

func TestCommitRequiresToken(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{}, nil)
	if _, err := client.Commit(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestPaymentMethodFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want string
	}{
		{code: "VD", want: "webpay_debit"},
		{code: "VP", want: "webpay_prepaid"},
		{code: "VN", want: "webpay_credit"},
		{code: "VC", want: "webpay_credit"},
		{code: "SI", want: "webpay_credit"},
		{code: "", want: "webpay_credit"},
	}
	for _, tt := range tests {
		if got := PaymentMethodFor(tt.code); got != tt.want {
			t.Errorf("PaymentMethodFor(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestNewSessionIDLength(t *testing.T) {
	t.Parallel()

	id := NewSessionID(strings.Repeat("f", 60))
	if len(id) > 61 {
		t.Errorf("session id length = %d, want <= 61", len(id))
	}
	if !strings.HasPrefix(id, "session_") {
		t.Errorf("session id %q missing prefix", id)
	}
}
