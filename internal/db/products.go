package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// ProductFilter narrows admin listings. Active is a tri-state: nil means
// both active and inactive products.
type ProductFilter struct {
	Search   string
	Category string
	Active   *bool
	Page     int
	Limit    int
}

const productColumns = `id, sku, name, description, price, sale_price, stock,
	category, active, featured, images, sizes, colors, created_at, updated_at`

// ListActive returns storefront products, featured first then newest.
func (s *ProductStore) ListActive(ctx context.Context, category string, featuredOnly bool, limit int) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active = TRUE`
	args := []any{}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if featuredOnly {
		query += " AND featured = TRUE"
	}
	query += " ORDER BY featured DESC, created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// GetBySKU returns an active product. SKUs are stored uppercase.
func (s *ProductStore) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku = $1 AND active = TRUE`,
		strings.ToUpper(sku))
	return scanProduct(row)
}

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// List returns a filtered admin page plus the total match count.
func (s *ProductStore) List(ctx context.Context, filter ProductFilter) ([]*Product, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		productColumns, cond, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductStore) Create(ctx context.Context, p *Product) error {
	images, sizes, colors, err := marshalProductArrays(p)
	if err != nil {
		return err
	}
	p.ID = uuid.New()
	p.SKU = strings.ToUpper(p.SKU)
	err = s.pool.QueryRow(ctx, `
		INSERT INTO products (id, sku, name, description, price, sale_price, stock,
			category, active, featured, images, sizes, colors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, p.ID, p.SKU, p.Name, p.Description, p.Price, nullableInt(p.SalePrice), p.Stock,
		p.Category, p.Active, p.Featured, images, sizes, colors).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrSKUTaken, p.SKU)
	}
	return err
}

func (s *ProductStore) Update(ctx context.Context, p *Product) error {
	images, sizes, colors, err := marshalProductArrays(p)
	if err != nil {
		return err
	}
	p.SKU = strings.ToUpper(p.SKU)
	err = s.pool.QueryRow(ctx, `
		UPDATE products
		SET sku = $2, name = $3, description = $4, price = $5, sale_price = $6,
			stock = $7, category = $8, active = $9, featured = $10,
			images = $11, sizes = $12, colors = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, p.ID, p.SKU, p.Name, p.Description, p.Price, nullableInt(p.SalePrice), p.Stock,
		p.Category, p.Active, p.Featured, images, sizes, colors).
		Scan(&p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrSKUTaken, p.SKU)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertBySKU inserts or refreshes a catalog row. Used by the seed tool.
func (s *ProductStore) UpsertBySKU(ctx context.Context, p *Product) error {
	images, sizes, colors, err := marshalProductArrays(p)
	if err != nil {
		return err
	}
	p.SKU = strings.ToUpper(p.SKU)
	return s.pool.QueryRow(ctx, `
		INSERT INTO products (id, sku, name, description, price, sale_price, stock,
			category, active, featured, images, sizes, colors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			price = EXCLUDED.price, sale_price = EXCLUDED.sale_price,
			stock = EXCLUDED.stock, category = EXCLUDED.category,
			active = EXCLUDED.active, featured = EXCLUDED.featured,
			images = EXCLUDED.images, sizes = EXCLUDED.sizes,
			colors = EXCLUDED.colors, updated_at = NOW()
		RETURNING id
	`, uuid.New(), p.SKU, p.Name, p.Description, p.Price, nullableInt(p.SalePrice), p.Stock,
		p.Category, p.Active, p.Featured, images, sizes, colors).
		Scan(&p.ID)
}

func marshalProductArrays(p *Product) (images, sizes, colors []byte, err error) {
	if images, err = json.Marshal(emptyIfNil(p.Images)); err != nil {
		return nil, nil, nil, err
	}
	if sizes, err = json.Marshal(emptyIfNil(p.Sizes)); err != nil {
		return nil, nil, nil, err
	}
	if colors, err = json.Marshal(emptyIfNil(p.Colors)); err != nil {
		return nil, nil, nil, err
	}
	return images, sizes, colors, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nullableInt(value int) pgtype.Int4 {
	if value <= 0 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(value), Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanProducts(rows pgx.Rows) ([]*Product, error) {
	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p         Product
		salePrice pgtype.Int4
		images    []byte
		sizes     []byte
		colors    []byte
	)
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &salePrice,
		&p.Stock, &p.Category, &p.Active, &p.Featured, &images, &sizes, &colors,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if salePrice.Valid {
		p.SalePrice = int(salePrice.Int32)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(colors, &p.Colors); err != nil {
		return nil, err
	}
	return &p, nil
}
