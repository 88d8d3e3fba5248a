package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminUserStore struct {
	pool *pgxpool.Pool
}

func NewAdminUserStore(pool *pgxpool.Pool) *AdminUserStore {
	return &AdminUserStore{pool: pool}
}

func (s *AdminUserStore) GetByEmail(ctx context.Context, email string) (*AdminUser, error) {
	var user AdminUser
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, role, active, created_at
		FROM admin_users WHERE email = $1
	`, normalizeEmail(email)).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role,
			&user.Active, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
