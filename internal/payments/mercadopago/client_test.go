package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreatePreference(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotReq PreferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
			"id":                 "pref-1",
			"init_point":         "https://www.mercadopago.cl/checkout/v1/redirect?pref_id=pref-1",
			"sandbox_init_point": "https://sandbox.mercadopago.cl/checkout/v1/redirect?pref_id=pref-1",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, AccessToken: "token-1"}, srv.Client())
	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items: []PreferenceItem{
			{Title: "Vestido Emara", Quantity: 2, UnitPrice: 15990, CurrencyID: "CLP"},
		},
		BackURLs: BackURLs{
			Success: "https://emara.cl/checkout/success?order=EMR-1-abcd",
			Failure: "https://emara.cl/checkout/failure?order=EMR-1-abcd",
			Pending: "https://emara.cl/checkout/pending?order=EMR-1-abcd",
		},
		ExternalReference:   "6b9f2e1c-0000-0000-0000-000000000000",
		StatementDescriptor: "EMARA",
	})
	if err != nil {
		t.Fatalf("CreatePreference: %v", err)
	}

	if gotAuth != "Bearer token-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if pref.InitPoint == "" {
		t.Error("InitPoint empty")
	}
	if gotReq.ExternalReference != "6b9f2e1c-0000-0000-0000-000000000000" {
		t.Errorf("external_reference = %q", gotReq.ExternalReference)
	}
	if len(gotReq.Items) != 1 || gotReq.Items[0].CurrencyID != "CLP" {
		t.Errorf("items = %+v", gotReq.Items)
	}
}

func TestGetPayment(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/12345" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":                 12345,
			"status":             "approved",
			"external_reference": "order-uuid",
			"payment_type_id":    "credit_card",
			"card":               map[string]string{"last_four_digits": "4321"},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, AccessToken: "token-1"}, srv.Client())
	payment, err := client.GetPayment(context.Background(), "12345")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}

	if payment.Status != StatusApproved {
		t.Errorf("Status = %q", payment.Status)
	}
	if payment.ExternalReference != "order-uuid" {
		t.Errorf("ExternalReference = %q", payment.ExternalReference)
	}
	if payment.Card.LastFourDigits != "4321" {
		t.Errorf("LastFourDigits = %q", payment.Card.LastFourDigits)
	}
}

func TestGetPaymentUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"payment not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	if _, err := client.GetPayment(context.Background(), "999"); err == nil {
		t.Fatal("expected error for upstream 404")
	}
}

func TestGetPaymentRequiresID(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{}, nil)
	if _, err := client.GetPayment(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty payment id")
	}
}
