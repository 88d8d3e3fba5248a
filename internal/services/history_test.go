package services

import (
	"context"
	"errors"
	"testing"

	"github.com/emarastore/emara/internal/legacy"
)

type fakeLegacyReader struct {
	orders []legacy.Order
	err    error
	calls  int
}

func (f *fakeLegacyReader) OrdersByEmail(context.Context, string) ([]legacy.Order, error) {
	f.calls++
	return f.orders, f.err
}

func TestOrdersByEmailValidatesShape(t *testing.T) {
	t.Parallel()

	reader := &fakeLegacyReader{}
	svc := NewHistoryService(reader, testLogger())

	for _, email := range []string{"", "not-an-email", "a@b", "spaces in@mail.cl"} {
		if _, err := svc.OrdersByEmail(context.Background(), email); !errors.Is(err, ErrValidation) {
			t.Errorf("email %q: err = %v, want ErrValidation", email, err)
		}
	}
	if reader.calls != 0 {
		t.Errorf("upstream called %d times for invalid emails", reader.calls)
	}
}

func TestOrdersByEmailPassesThrough(t *testing.T) {
	t.Parallel()

	reader := &fakeLegacyReader{orders: []legacy.Order{{IncrementID: "100004521"}}}
	svc := NewHistoryService(reader, testLogger())

	orders, err := svc.OrdersByEmail(context.Background(), "ana@example.cl")
	if err != nil {
		t.Fatalf("OrdersByEmail: %v", err)
	}
	if len(orders) != 1 || orders[0].IncrementID != "100004521" {
		t.Errorf("orders = %+v", orders)
	}
}

func TestOrdersByEmailEmptyHistoryIsNotNil(t *testing.T) {
	t.Parallel()

	svc := NewHistoryService(&fakeLegacyReader{}, testLogger())
	orders, err := svc.OrdersByEmail(context.Background(), "ana@example.cl")
	if err != nil {
		t.Fatalf("OrdersByEmail: %v", err)
	}
	if orders == nil {
		t.Error("history should serialize as [] not null")
	}
}

func TestOrdersByEmailPropagatesUpstreamError(t *testing.T) {
	t.Parallel()

	reader := &fakeLegacyReader{err: legacy.ErrUpstreamAuth}
	svc := NewHistoryService(reader, testLogger())

	if _, err := svc.OrdersByEmail(context.Background(), "ana@example.cl"); !errors.Is(err, legacy.ErrUpstreamAuth) {
		t.Fatalf("err = %v, want ErrUpstreamAuth", err)
	}
}
