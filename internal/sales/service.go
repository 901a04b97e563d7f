package sales

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockbook/internal/catalog"
	"github.com/odyssey-erp/stockbook/internal/platform/db"
	"github.com/odyssey-erp/stockbook/internal/pricing"
	"github.com/odyssey-erp/stockbook/internal/shared"
)

const maxRecordAttempts = 3

// ProductReader looks products up for quoting and the sale form.
type ProductReader interface {
	Get(ctx context.Context, ownerID, id int64) (catalog.Product, error)
	All(ctx context.Context, ownerID int64) ([]catalog.Product, error)
}

// Metrics receives sale outcomes.
type Metrics interface {
	SaleRecorded(total float64)
	SaleRejected(reason string)
}

// WarmupEnqueuer schedules a chart cache refill for an owner.
type WarmupEnqueuer interface {
	EnqueueChartWarmup(ctx context.Context, ownerID int64) error
}

// Options carries the optional collaborators of the Service.
type Options struct {
	Metrics     Metrics
	Invalidator catalog.Invalidator
	Warmup      WarmupEnqueuer
	Logger      *slog.Logger
}

// Service records and lists sales.
type Service struct {
	repo     Repository
	products ProductReader
	validate *validator.Validate
	opts     Options
	logger   *slog.Logger
}

// NewService wires the sales service.
func NewService(repo Repository, products ProductReader, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		products: products,
		validate: shared.NewValidator(),
		opts:     opts,
		logger:   logger.With("component", "sales"),
	}
}

// Products lists what can be sold.
func (s *Service) Products(ctx context.Context, ownerID int64) ([]catalog.Product, error) {
	return s.products.All(ctx, ownerID)
}

// Quote prices in against the current product without recording anything.
func (s *Service) Quote(ctx context.Context, ownerID int64, in SaleInput) (pricing.SaleQuote, error) {
	if err := shared.Validate(s.validate, in); err != nil {
		return pricing.SaleQuote{}, err
	}
	p, err := s.products.Get(ctx, ownerID, in.ProductID)
	if errors.Is(err, catalog.ErrNotFound) {
		return pricing.SaleQuote{}, ErrProductNotFound
	}
	if err != nil {
		return pricing.SaleQuote{}, err
	}
	return pricing.QuoteSale(p.Stock, in.Inputs(p.SalesUnitPrice)), nil
}

// Record stores a sale and decrements the product stock atomically. The
// sale is priced with the product's sales price at the time of the write.
func (s *Service) Record(ctx context.Context, ownerID int64, in SaleInput) (Sale, error) {
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if err := shared.Validate(s.validate, in); err != nil {
		return Sale{}, err
	}

	build := func(p Stocked) (Sale, error) {
		inputs := in.Inputs(p.SalesUnitPrice)
		quote := pricing.QuoteSale(p.Stock, inputs)
		if quote.ExceedsStock {
			return Sale{}, ErrExceedsStock
		}
		return Sale{
			OwnerID:        ownerID,
			Product:        p.ProductSnapshot,
			Quantity:       in.Quantity,
			SalesPrice:     quote.SalesPrice,
			RemainingStock: quote.RemainingStock,
			Discount:       inputs.Discount,
			ExtraCharge:    inputs.ExtraCharge,
			SalesTotal:     quote.SalesTotal,
			IdempotencyKey: in.IdempotencyKey,
		}, nil
	}

	var (
		sale Sale
		err  error
	)
	for attempt := 1; attempt <= maxRecordAttempts; attempt++ {
		sale, err = s.repo.Record(ctx, ownerID, in.ProductID, in.IdempotencyKey, build)
		if !db.IsSerializationFailure(err) {
			break
		}
		s.logger.Debug("sale serialization conflict, retrying", slog.Int("attempt", attempt))
	}
	if err != nil {
		s.rejected(err)
		return Sale{}, err
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.SaleRecorded(sale.SalesTotal)
	}
	s.logger.Info("sale recorded",
		slog.Int64("owner_id", ownerID),
		slog.Int64("sale_id", sale.ID),
		slog.Int64("product_id", sale.Product.ID),
		slog.Int("quantity", sale.Quantity),
		slog.Float64("sales_total", sale.SalesTotal))
	s.refreshCharts(ctx, ownerID)
	return sale, nil
}

// List returns one page of sales, newest first.
func (s *Service) List(ctx context.Context, ownerID int64, page, perPage int) ([]Sale, shared.Pagination, error) {
	pg := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.List(ctx, ownerID, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(pg.Page, pg.PerPage, total), nil
}

// Since returns sales created at or after since, oldest first.
func (s *Service) Since(ctx context.Context, ownerID int64, since time.Time) ([]Sale, error) {
	return s.repo.Since(ctx, ownerID, since)
}

func (s *Service) rejected(err error) {
	if s.opts.Metrics == nil {
		return
	}
	switch {
	case errors.Is(err, ErrExceedsStock):
		s.opts.Metrics.SaleRejected("exceeds_stock")
	case errors.Is(err, ErrDuplicateSubmission):
		s.opts.Metrics.SaleRejected("duplicate")
	case errors.Is(err, ErrProductNotFound):
		s.opts.Metrics.SaleRejected("product_not_found")
	}
}

func (s *Service) refreshCharts(ctx context.Context, ownerID int64) {
	if s.opts.Invalidator != nil {
		if err := s.opts.Invalidator.Invalidate(ctx, ownerID); err != nil {
			s.logger.Warn("chart cache invalidation failed", slog.Int64("owner_id", ownerID), slog.Any("error", err))
		}
	}
	if s.opts.Warmup != nil {
		if err := s.opts.Warmup.EnqueueChartWarmup(ctx, ownerID); err != nil {
			s.logger.Warn("enqueue chart warmup failed", slog.Int64("owner_id", ownerID), slog.Any("error", err))
		}
	}
}
