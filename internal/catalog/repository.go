package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/stockbook/internal/platform/db"
)

// Querier is the part of pgxpool.Pool and pgx.Tx the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists products.
type Repository interface {
	List(ctx context.Context, ownerID int64, filters ListFilters) ([]Product, int, error)
	All(ctx context.Context, ownerID int64) ([]Product, error)
	ModifiedSince(ctx context.Context, ownerID int64, since time.Time) ([]Product, error)
	Get(ctx context.Context, ownerID, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type repository struct {
	db Querier
}

// NewRepository returns a pgx backed Repository.
func NewRepository(db Querier) Repository {
	return &repository{db: db}
}

const productColumns = `id, owner_id, name, stock, unit_price, transport_cost, tax_rate_percent,
	other_taxes_percent, expected_profit_percent, gross_unit_price, sales_unit_price,
	estimated_profit, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Stock, &p.UnitPrice, &p.TransportCost, &p.TaxRatePercent,
		&p.OtherTaxesPercent, &p.ExpectedProfitPercent, &p.GrossUnitPrice, &p.SalesUnitPrice,
		&p.EstimatedProfit, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collect(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) List(ctx context.Context, ownerID int64, filters ListFilters) ([]Product, int, error) {
	where := ` WHERE owner_id = $1`
	args := []any{ownerID}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	if filters.PerPage > 0 {
		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, filters.PerPage, offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	products, err := collect(rows)
	return products, total, err
}

func (r *repository) All(ctx context.Context, ownerID int64) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repository) ModifiedSince(ctx context.Context, ownerID int64, since time.Time) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE owner_id = $1 AND updated_at >= $2 ORDER BY updated_at`, ownerID, since)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE owner_id = $1 AND id = $2`, ownerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO products (owner_id, name, stock, unit_price, transport_cost, tax_rate_percent,
		other_taxes_percent, expected_profit_percent, gross_unit_price, sales_unit_price, estimated_profit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+productColumns,
		p.OwnerID, p.Name, p.Stock, p.UnitPrice, p.TransportCost, p.TaxRatePercent,
		p.OtherTaxesPercent, p.ExpectedProfitPercent, p.GrossUnitPrice, p.SalesUnitPrice, p.EstimatedProfit)
	created, err := scanProduct(row)
	if db.IsUniqueViolation(err) {
		return Product{}, ErrDuplicateName
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, p Product) (Product, error) {
	row := r.db.QueryRow(ctx, `UPDATE products SET name = $3, stock = $4, unit_price = $5, transport_cost = $6,
		tax_rate_percent = $7, other_taxes_percent = $8, expected_profit_percent = $9, gross_unit_price = $10,
		sales_unit_price = $11, estimated_profit = $12, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
		RETURNING `+productColumns,
		p.OwnerID, p.ID, p.Name, p.Stock, p.UnitPrice, p.TransportCost,
		p.TaxRatePercent, p.OtherTaxesPercent, p.ExpectedProfitPercent, p.GrossUnitPrice,
		p.SalesUnitPrice, p.EstimatedProfit)
	updated, err := scanProduct(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Product{}, ErrNotFound
	case db.IsUniqueViolation(err):
		return Product{}, ErrDuplicateName
	}
	return updated, err
}

func (r *repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "stock", "unit_price", "gross_unit_price", "sales_unit_price", "estimated_profit", "updated_at":
		return sortBy + " " + dir + ", id"
	default:
		return "name " + dir + ", id"
	}
}
