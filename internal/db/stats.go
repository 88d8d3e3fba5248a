package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsStore struct {
	pool   *pgxpool.Pool
	orders *OrderStore
}

func NewStatsStore(pool *pgxpool.Pool) *StatsStore {
	return &StatsStore{pool: pool, orders: NewOrderStore(pool)}
}

// DashboardStats is the admin landing-page summary. Revenue counts paid
// orders only.
type DashboardStats struct {
	TotalProducts    int      `json:"total_products"`
	ActiveProducts   int      `json:"active_products"`
	InactiveProducts int      `json:"inactive_products"`
	TotalOrders      int      `json:"total_orders"`
	PendingOrders    int      `json:"pending_orders"`
	TotalCustomers   int      `json:"total_customers"`
	Revenue          int      `json:"revenue"`
	RecentOrders     []*Order `json:"recent_orders"`
}

func (s *StatsStore) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM products WHERE active),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM orders WHERE payment_status = 'pending'),
			(SELECT COUNT(*) FROM customers),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE payment_status = 'paid')
	`).Scan(&stats.TotalProducts, &stats.ActiveProducts, &stats.TotalOrders,
		&stats.PendingOrders, &stats.TotalCustomers, &stats.Revenue)
	if err != nil {
		return nil, err
	}
	stats.InactiveProducts = stats.TotalProducts - stats.ActiveProducts

	recent, _, err := s.orders.List(ctx, OrderFilter{Limit: 5})
	if err != nil {
		return nil, err
	}
	stats.RecentOrders = recent
	if stats.RecentOrders == nil {
		stats.RecentOrders = []*Order{}
	}
	return stats, nil
}
