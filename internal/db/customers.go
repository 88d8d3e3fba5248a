package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerStore struct {
	pool *pgxpool.Pool
}

func NewCustomerStore(pool *pgxpool.Pool) *CustomerStore {
	return &CustomerStore{pool: pool}
}

func (s *CustomerStore) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, rut, created_at
		FROM customers WHERE email = $1
	`, normalizeEmail(email))
	return scanCustomer(row)
}

// Upsert creates a customer or refreshes the mutable contact fields of an
// existing one. Email is the identity and is never rewritten. An empty rut
// does not clear a previously recorded one.
func (s *CustomerStore) Upsert(ctx context.Context, c *Customer) error {
	c.Email = normalizeEmail(c.Email)
	return s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, email, first_name, last_name, phone, rut)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			rut = COALESCE(EXCLUDED.rut, customers.rut)
		RETURNING id, created_at
	`, uuid.New(), c.Email, c.FirstName, c.LastName, c.Phone, c.RUT).
		Scan(&c.ID, &c.CreatedAt)
}

// CreateAddress stores the shipping address submitted with an order. Addresses
// are append-only; repeat orders to the same place create new rows.
func (s *CustomerStore) CreateAddress(ctx context.Context, a *Address) error {
	a.ID = uuid.New()
	return s.pool.QueryRow(ctx, `
		INSERT INTO addresses (id, customer_id, street, city, region, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, a.ID, a.CustomerID, a.Street, a.City, a.Region, a.PostalCode, a.Country).
		Scan(&a.CreatedAt)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var (
		c   Customer
		rut pgtype.Text
	)
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &rut, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rut.Valid {
		c.RUT = rut.String
	}
	return &c, nil
}
