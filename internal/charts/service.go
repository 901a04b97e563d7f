package charts

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/stockbook/internal/catalog"
	"github.com/odyssey-erp/stockbook/internal/period"
	"github.com/odyssey-erp/stockbook/internal/pricing"
	"github.com/odyssey-erp/stockbook/internal/sales"
)

// ProductSource lists products modified inside a lapse.
type ProductSource interface {
	ModifiedSince(ctx context.Context, ownerID int64, since time.Time) ([]catalog.Product, error)
}

// SaleSource lists sales created inside a lapse.
type SaleSource interface {
	Since(ctx context.Context, ownerID int64, since time.Time) ([]sales.Sale, error)
}

// CacheMetrics observes cache lookups.
type CacheMetrics interface {
	ChartCacheLookup(hit bool)
}

// Service builds charts and caches them per owner.
type Service struct {
	products ProductSource
	sales    SaleSource
	calendar *period.Calendar
	cache    *Cache
	metrics  CacheMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the chart service. cache and metrics may be nil.
func NewService(products ProductSource, sold SaleSource, calendar *period.Calendar, cache *Cache, metrics CacheMetrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		products: products,
		sales:    sold,
		calendar: calendar,
		cache:    cache,
		metrics:  metrics,
		logger:   logger.With("component", "charts"),
		now:      time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Calendar exposes the calendar the charts are bucketed with.
func (s *Service) Calendar() *period.Calendar {
	return s.calendar
}

// Chart returns one chart of the owner for a lapse, served from the cache
// when possible.
func (s *Service) Chart(ctx context.Context, ownerID int64, kind Kind, lapse period.Lapse) (Chart, error) {
	now := s.now()
	key, err := s.cache.BuildKey(ctx, ownerID, string(kind), string(lapse), now.In(s.calendar.Location()).Format("20060102"))
	if err != nil {
		s.logger.Warn("chart cache unavailable", slog.Any("error", err))
		return s.Build(ctx, ownerID, kind, lapse, now)
	}
	var out Chart
	hit, err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.Build(ctx, ownerID, kind, lapse, now)
	})
	if err != nil {
		return Chart{}, err
	}
	if s.metrics != nil {
		s.metrics.ChartCacheLookup(hit)
	}
	return out, nil
}

// Invalidate drops every cached chart of the owner.
func (s *Service) Invalidate(ctx context.Context, ownerID int64) error {
	return s.cache.Bump(ctx, ownerID)
}

// Warm fills the cache with every chart and lapse of the owner and reports
// how many charts it built.
func (s *Service) Warm(ctx context.Context, ownerID int64) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, kind := range Kinds {
		for _, lapse := range period.Lapses {
			g.Go(func() error {
				_, err := s.Chart(ctx, ownerID, kind, lapse)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(Kinds) * len(period.Lapses), nil
}

// Build computes a chart without the cache.
func (s *Service) Build(ctx context.Context, ownerID int64, kind Kind, lapse period.Lapse, now time.Time) (Chart, error) {
	since := s.calendar.MinTimestamp(lapse, now)

	var (
		products []catalog.Product
		sold     []sales.Sale
	)
	g, gctx := errgroup.WithContext(ctx)
	if kind == KindBalance {
		g.Go(func() error {
			var err error
			products, err = s.products.ModifiedSince(gctx, ownerID, since)
			return err
		})
	}
	g.Go(func() error {
		var err error
		sold, err = s.sales.Since(gctx, ownerID, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return Chart{}, err
	}

	chart := Chart{Kind: kind, Lapse: lapse}
	switch kind {
	case KindBalance:
		holdings := make([]pricing.Holding, 0, len(products))
		for _, p := range products {
			holdings = append(holdings, p.Holding())
		}
		totals := make([]float64, 0, len(sold))
		for _, sale := range sold {
			totals = append(totals, sale.SalesTotal)
		}
		inv := pricing.SummarizeInvestment(holdings, totals)
		chart.Investment = &inv
		chart.Labels = []string{LabelNetInvestment, LabelGrossInvestment, LabelTotalSales}
		chart.Values = []float64{inv.Net, inv.Gross, inv.TotalSales}
		chart.Colors = balanceColors
		chart.Title = s.calendar.FormatDate(since) + " a " + s.calendar.FormatDate(now)
	case KindProfits:
		labels, totals := period.Bucketize(s.calendar, lapse, now, sold, saleTime, sales.Sale.MarginPercent)
		chart.Labels = labels
		chart.Values = round2All(totals.Series(labels))
		chart.Title = spanTitle(labels)
	case KindSales:
		labels, totals := period.Bucketize(s.calendar, lapse, now, sold, saleTime, saleTotal)
		chart.Labels = labels
		chart.Values = round2All(totals.Series(labels))
		chart.Title = spanTitle(labels)
	case KindProducts:
		totals := period.FoldByCategory(sold, productName, saleTotal)
		chart.Labels = s.calendar.CategoryLabels(totals)
		chart.Values = round2All(totals.Series(chart.Labels))
		chart.Colors = make([]string, len(chart.Labels))
		for i := range chart.Labels {
			chart.Colors[i] = Palette[i%len(Palette)]
		}
		chart.Title = s.calendar.FormatDate(since) + " a " + s.calendar.FormatDate(now)
	default:
		return Chart{}, ErrUnknownChart
	}
	return chart, nil
}

func saleTime(s sales.Sale) time.Time { return s.CreatedAt }
func saleTotal(s sales.Sale) float64  { return s.SalesTotal }
func productName(s sales.Sale) string { return s.Product.Name }

func round2All(values []float64) []float64 {
	for i, v := range values {
		values[i] = pricing.Round2(v)
	}
	return values
}

func spanTitle(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return labels[0] + " a " + labels[len(labels)-1]
}
