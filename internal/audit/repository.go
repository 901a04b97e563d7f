package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads audit_logs with pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Window returns limit rows starting at offset.
func (r *PGRepository) Window(ctx context.Context, ownerID int64, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	query, args := timelineQuery(ownerID, filters)
	args = append(args, limit, offset)
	query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	return r.collect(ctx, query, args)
}

// All returns every matching row.
func (r *PGRepository) All(ctx context.Context, ownerID int64, filters TimelineFilters) ([]TimelineRow, error) {
	query, args := timelineQuery(ownerID, filters)
	return r.collect(ctx, query, args)
}

func timelineQuery(ownerID int64, filters TimelineFilters) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT occurred_at, action, entity, entity_id, meta FROM audit_logs WHERE actor_id = $1`)
	args := []any{ownerID}
	add := func(clause string, v any) {
		args = append(args, v)
		b.WriteString(" AND " + clause + " $" + strconv.Itoa(len(args)))
	}
	if !filters.From.IsZero() {
		add("occurred_at >=", filters.From)
	}
	if !filters.To.IsZero() {
		add("occurred_at <", filters.To)
	}
	if filters.Entity != "" {
		add("entity =", filters.Entity)
	}
	if filters.Action != "" {
		add("action =", filters.Action)
	}
	b.WriteString(` ORDER BY occurred_at DESC, id DESC`)
	return b.String(), args
}

func (r *PGRepository) collect(ctx context.Context, query string, args []any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var out TimelineRow
		var meta []byte
		if err := row.Scan(&out.At, &out.Action, &out.Entity, &out.EntityID, &meta); err != nil {
			return TimelineRow{}, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &out.Meta); err != nil {
				return TimelineRow{}, err
			}
		}
		return out, nil
	})
}

var _ Repository = (*PGRepository)(nil)
