package sales

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/stockbook/internal/platform/db"
	"github.com/odyssey-erp/stockbook/internal/shared"
)

// BuildFunc prices a sale against the locked product row.
type BuildFunc func(p Stocked) (Sale, error)

// Repository persists sales.
type Repository interface {
	// Record locks the product, builds the sale with build, inserts it and
	// decrements the stock in one transaction.
	Record(ctx context.Context, ownerID, productID int64, idempotencyKey string, build BuildFunc) (Sale, error)
	List(ctx context.Context, ownerID int64, limit, offset int) ([]Sale, int, error)
	Since(ctx context.Context, ownerID int64, since time.Time) ([]Sale, error)
}

// PGRepository is the Postgres Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const saleColumns = `id, owner_id, product_id, product_name, product_gross_unit_price, product_sales_unit_price,
	quantity, sales_price, remaining_stock, discount_kind, discount, extra_charge_kind, extra_charge,
	sales_total, COALESCE(idempotency_key, ''), created_at`

func scanSale(row pgx.Row) (Sale, error) {
	var (
		s         Sale
		productID *int64
	)
	err := row.Scan(&s.ID, &s.OwnerID, &productID, &s.Product.Name, &s.Product.GrossUnitPrice, &s.Product.SalesUnitPrice,
		&s.Quantity, &s.SalesPrice, &s.RemainingStock, &s.Discount.Kind, &s.Discount.Value, &s.ExtraCharge.Kind, &s.ExtraCharge.Value,
		&s.SalesTotal, &s.IdempotencyKey, &s.CreatedAt)
	if productID != nil {
		s.Product.ID = *productID
	}
	return s, err
}

// Record implements Repository.
func (r *PGRepository) Record(ctx context.Context, ownerID, productID int64, idempotencyKey string, build BuildFunc) (Sale, error) {
	var sale Sale
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var p Stocked
		err := tx.QueryRow(ctx, `SELECT id, name, gross_unit_price, sales_unit_price, stock
			FROM products WHERE owner_id = $1 AND id = $2 FOR UPDATE`, ownerID, productID).
			Scan(&p.ID, &p.Name, &p.GrossUnitPrice, &p.SalesUnitPrice, &p.Stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		s, err := build(p)
		if err != nil {
			return err
		}

		if idempotencyKey != "" {
			key := strconv.FormatInt(ownerID, 10) + ":" + idempotencyKey
			if err := shared.CheckAndInsert(ctx, tx, key, "sales"); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					return ErrDuplicateSubmission
				}
				return err
			}
		}

		var key *string
		if idempotencyKey != "" {
			key = &idempotencyKey
		}
		row := tx.QueryRow(ctx, `INSERT INTO sales (owner_id, product_id, product_name, product_gross_unit_price,
			product_sales_unit_price, quantity, sales_price, remaining_stock, discount_kind, discount,
			extra_charge_kind, extra_charge, sales_total, idempotency_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING `+saleColumns,
			ownerID, p.ID, s.Product.Name, s.Product.GrossUnitPrice, s.Product.SalesUnitPrice,
			s.Quantity, s.SalesPrice, s.RemainingStock, string(s.Discount.Kind), s.Discount.Value,
			string(s.ExtraCharge.Kind), s.ExtraCharge.Value, s.SalesTotal, key)
		sale, err = scanSale(row)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE products SET stock = $3 WHERE owner_id = $1 AND id = $2`,
			ownerID, p.ID, s.RemainingStock); err != nil {
			return err
		}

		return shared.RecordAudit(ctx, tx, shared.AuditLog{
			ActorID:  ownerID,
			Action:   "sale.create",
			Entity:   "sale",
			EntityID: strconv.FormatInt(sale.ID, 10),
			Meta: map[string]any{
				"product_id":  p.ID,
				"quantity":    sale.Quantity,
				"sales_total": sale.SalesTotal,
			},
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Sale{}, ErrDuplicateSubmission
		}
		return Sale{}, err
	}
	return sale, nil
}

// List implements Repository, newest first.
func (r *PGRepository) List(ctx context.Context, ownerID int64, limit, offset int) ([]Sale, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	sales, err := collect(rows)
	return sales, total, err
}

// Since implements Repository, oldest first.
func (r *PGRepository) Since(ctx context.Context, ownerID int64, since time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales WHERE owner_id = $1 AND created_at >= $2
		ORDER BY created_at, id`, ownerID, since)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Sale, error) {
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
