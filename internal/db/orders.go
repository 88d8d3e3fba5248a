package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emarastore/emara/internal/models"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	PaymentStatus string
	Page          int
	Limit         int
}

const orderColumns = `o.id, o.order_number, o.customer_id, c.email,
	c.first_name || ' ' || c.last_name, o.status, o.payment_status,
	o.payment_method, o.subtotal, o.shipping, o.tax, o.total,
	o.shipping_address, o.billing_address, o.authorization_code, o.card_number,
	o.response_code, o.transaction_date, o.created_at, o.updated_at`

const orderFrom = ` FROM orders o JOIN customers c ON c.id = o.customer_id `

// CreateWithItems inserts the order and all of its items in one transaction.
// Any failure rolls back the whole write.
func (s *OrderStore) CreateWithItems(ctx context.Context, order *Order, items []OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}

	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}
	billingJSON, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	order.ID = uuid.New()
	order.Status = StatusPending
	order.PaymentStatus = PaymentPending
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, order_number, customer_id, status, payment_status,
			subtotal, shipping, tax, total, shipping_address, billing_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, order.ID, order.OrderNumber, order.CustomerID, order.Status, order.PaymentStatus,
		order.Subtotal, order.Shipping, order.Tax, order.Total, shippingJSON, billingJSON).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = order.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, sku, name, price,
				quantity, size, color, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10)
		`, items[i].ID, items[i].OrderID, items[i].ProductID, items[i].SKU,
			items[i].Name, items[i].Price, items[i].Quantity, items[i].Size,
			items[i].Color, items[i].Subtotal)
		if err != nil {
			return fmt.Errorf("failed to insert order item %s: %w", items[i].SKU, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+`WHERE o.id = $1`, orderID)
	return scanOrder(row)
}

// GetByOrderNumber locates an order by its public number. This is the
// correlation key carried through the payment redirect as buy_order.
func (s *OrderStore) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+`WHERE o.order_number = $1`, orderNumber)
	return scanOrder(row)
}

func (s *OrderStore) List(ctx context.Context, filter OrderFilter) ([]*Order, int, error) {
	cond := "TRUE"
	args := []any{}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		cond = fmt.Sprintf("o.payment_status = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*)`+orderFrom+`WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf("SELECT %s%sWHERE %s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d",
		orderColumns, orderFrom, cond, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}

func (s *OrderStore) ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, sku, name, price, quantity, size, color, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY sku
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var (
			item        OrderItem
			size, color pgtype.Text
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SKU,
			&item.Name, &item.Price, &item.Quantity, &size, &color, &item.Subtotal); err != nil {
			return nil, err
		}
		item.Size = size.String
		item.Color = color.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// RecordPaymentResult applies a provider outcome to the order as a full
// overwrite. No status guard: the provider result is authoritative, and
// re-applying the same result lands on the same state.
func (s *OrderStore) RecordPaymentResult(ctx context.Context, orderID uuid.UUID, result PaymentResult) error {
	responseCode := pgtype.Int4{}
	if result.ResponseCode != nil {
		responseCode = pgtype.Int4{Int32: int32(*result.ResponseCode), Valid: true}
	}
	transactionDate := pgtype.Timestamptz{Time: result.TransactionDate, Valid: !result.TransactionDate.IsZero()}

	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2, status = $3, payment_method = NULLIF($4, ''),
			authorization_code = NULLIF($5, ''), card_number = NULLIF($6, ''),
			response_code = $7, transaction_date = $8, updated_at = NOW()
		WHERE id = $1
	`, orderID, result.PaymentStatus, result.Status, result.PaymentMethod,
		result.AuthorizationCode, result.CardNumber, responseCode, transactionDate)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFulfillmentStatus moves the shipping lifecycle. Orders whose payment
// failed were cancelled by the confirmer and stay that way.
func (s *OrderStore) UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, status models.FulfillmentStatus) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'failed'
	`, orderID, status)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return fmt.Errorf("%w: payment failed", ErrInvalidStatusTransition)
	}
	return nil
}

type orderRow struct {
	paymentMethod     pgtype.Text
	authorizationCode pgtype.Text
	cardNumber        pgtype.Text
	responseCode      pgtype.Int4
	transactionDate   pgtype.Timestamptz
	shippingAddress   []byte
	billingAddress    []byte
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		order Order
		raw   orderRow
	)
	err := row.Scan(&order.ID, &order.OrderNumber, &order.CustomerID,
		&order.CustomerEmail, &order.CustomerName, &order.Status,
		&order.PaymentStatus, &raw.paymentMethod, &order.Subtotal,
		&order.Shipping, &order.Tax, &order.Total, &raw.shippingAddress,
		&raw.billingAddress, &raw.authorizationCode, &raw.cardNumber,
		&raw.responseCode, &raw.transactionDate, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	order.PaymentMethod = raw.paymentMethod.String
	order.AuthorizationCode = raw.authorizationCode.String
	order.CardNumber = raw.cardNumber.String
	if raw.responseCode.Valid {
		code := int(raw.responseCode.Int32)
		order.ResponseCode = &code
	}
	if raw.transactionDate.Valid {
		order.TransactionDate = raw.transactionDate.Time
	}
	if raw.shippingAddress != nil {
		if err := json.Unmarshal(raw.shippingAddress, &order.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if raw.billingAddress != nil {
		if err := json.Unmarshal(raw.billingAddress, &order.BillingAddress); err != nil {
			return nil, err
		}
	}
	return &order, nil
}
