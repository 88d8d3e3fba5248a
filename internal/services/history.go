package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/emarastore/emara/internal/legacy"
	"github.com/emarastore/emara/internal/logging"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type legacyOrderReader interface {
	OrdersByEmail(ctx context.Context, email string) ([]legacy.Order, error)
}

// HistoryService serves order history from the Magento store that preceded
// this one.
type HistoryService struct {
	legacy legacyOrderReader
	logger *slog.Logger
}

func NewHistoryService(legacyClient legacyOrderReader, logger *slog.Logger) *HistoryService {
	return &HistoryService{legacy: legacyClient, logger: logger}
}

func (s *HistoryService) OrdersByEmail(ctx context.Context, email string) ([]legacy.Order, error) {
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	orders, err := s.legacy.OrdersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.logger).Info("legacy history served", "orders", len(orders))
	if orders == nil {
		orders = []legacy.Order{}
	}
	return orders, nil
}
