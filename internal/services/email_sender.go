package services

import (
	"context"

	"github.com/emarastore/emara/internal/db"
	"github.com/emarastore/emara/internal/email"
)

type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order *db.Order, items []db.OrderItem) error
}

// ProviderOrderEmailSender sends through a configured email provider.
type ProviderOrderEmailSender struct {
	provider email.Provider
}

func NewProviderOrderEmailSender(provider email.Provider) *ProviderOrderEmailSender {
	return &ProviderOrderEmailSender{provider: provider}
}

func (s *ProviderOrderEmailSender) SendOrderConfirmation(ctx context.Context, order *db.Order, items []db.OrderItem) error {
	return s.provider.SendEmail(ctx, email.OrderConfirmation(order, items))
}

// noopOrderEmailSender is used when no email provider is configured.
type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *db.Order, []db.OrderItem) error {
	return nil
}
