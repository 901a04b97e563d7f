package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockbook/internal/catalog"
	"github.com/odyssey-erp/stockbook/internal/pricing"
	"github.com/odyssey-erp/stockbook/internal/shared"
)

type memoryStore struct {
	mu         sync.Mutex
	products   map[int64]catalog.Product
	sales      []Sale
	keys       map[string]bool
	conflicts  int
	recordCall int
}

func newMemoryStore(products ...catalog.Product) *memoryStore {
	m := &memoryStore{products: map[int64]catalog.Product{}, keys: map[string]bool{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memoryStore) Record(_ context.Context, ownerID, productID int64, key string, build BuildFunc) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall++
	if m.conflicts > 0 {
		m.conflicts--
		return Sale{}, &pgconn.PgError{Code: "40001"}
	}
	p, ok := m.products[productID]
	if !ok || p.OwnerID != ownerID {
		return Sale{}, ErrProductNotFound
	}
	s, err := build(Stocked{
		ProductSnapshot: ProductSnapshot{ID: p.ID, Name: p.Name, GrossUnitPrice: p.GrossUnitPrice, SalesUnitPrice: p.SalesUnitPrice},
		Stock:           p.Stock,
	})
	if err != nil {
		return Sale{}, err
	}
	if key != "" {
		if m.keys[key] {
			return Sale{}, ErrDuplicateSubmission
		}
		m.keys[key] = true
	}
	s.ID = int64(len(m.sales) + 1)
	s.CreatedAt = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	m.sales = append(m.sales, s)
	p.Stock = s.RemainingStock
	m.products[p.ID] = p
	return s, nil
}

func (m *memoryStore) List(_ context.Context, ownerID int64, limit, offset int) ([]Sale, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []Sale
	for i := len(m.sales) - 1; i >= 0; i-- {
		if m.sales[i].OwnerID == ownerID {
			owned = append(owned, m.sales[i])
		}
	}
	total := len(owned)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}

func (m *memoryStore) Since(_ context.Context, ownerID int64, since time.Time) ([]Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sale
	for _, s := range m.sales {
		if s.OwnerID == ownerID && !s.CreatedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, ownerID, id int64) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.OwnerID != ownerID {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) All(_ context.Context, ownerID int64) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.Product
	for _, p := range m.products {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeMetrics struct {
	recorded []float64
	rejected []string
}

func (f *fakeMetrics) SaleRecorded(total float64) { f.recorded = append(f.recorded, total) }
func (f *fakeMetrics) SaleRejected(reason string) { f.rejected = append(f.rejected, reason) }

type fakeWarmup struct{ owners []int64 }

func (f *fakeWarmup) EnqueueChartWarmup(_ context.Context, ownerID int64) error {
	f.owners = append(f.owners, ownerID)
	return nil
}

const owner int64 = 7

func mate() catalog.Product {
	return catalog.Product{
		ID:      1,
		OwnerID: owner,
		Name:    "Mate",
		Stock:   10,
		Fields: pricing.Fields{
			GrossUnitPrice: 80,
			SalesUnitPrice: 100,
		},
	}
}

func newTestService(store *memoryStore) (*Service, *fakeMetrics, *fakeWarmup) {
	metrics := &fakeMetrics{}
	warmup := &fakeWarmup{}
	return NewService(store, store, Options{Metrics: metrics, Warmup: warmup}), metrics, warmup
}

func TestRecordSale(t *testing.T) {
	store := newMemoryStore(mate())
	svc, metrics, warmup := newTestService(store)

	sale, err := svc.Record(context.Background(), owner, SaleInput{
		ProductID:       1,
		Quantity:        3,
		DiscountKind:    "percentage",
		Discount:        10,
		ExtraChargeKind: "amount",
		ExtraCharge:     5,
	})
	require.NoError(t, err)
	require.Equal(t, 275.0, sale.SalesTotal)
	require.Equal(t, 100.0, sale.SalesPrice)
	require.Equal(t, 7, sale.RemainingStock)
	require.Equal(t, "Mate", sale.Product.Name)
	require.Equal(t, 7, store.products[1].Stock)
	require.Equal(t, []float64{275}, metrics.recorded)
	require.Equal(t, []int64{owner}, warmup.owners)
}

func TestRecordSellsWholeStock(t *testing.T) {
	store := newMemoryStore(mate())
	svc, _, _ := newTestService(store)

	sale, err := svc.Record(context.Background(), owner, SaleInput{ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	require.Equal(t, 0, sale.RemainingStock)
}

func TestRecordRejectsExceedingStock(t *testing.T) {
	store := newMemoryStore(mate())
	svc, metrics, warmup := newTestService(store)

	_, err := svc.Record(context.Background(), owner, SaleInput{ProductID: 1, Quantity: 11})
	require.ErrorIs(t, err, ErrExceedsStock)
	require.Empty(t, store.sales)
	require.Equal(t, 10, store.products[1].Stock)
	require.Equal(t, []string{"exceeds_stock"}, metrics.rejected)
	require.Empty(t, warmup.owners)
}

func TestRecordValidation(t *testing.T) {
	store := newMemoryStore(mate())
	svc, _, _ := newTestService(store)

	_, err := svc.Record(context.Background(), owner, SaleInput{ProductID: 0, Quantity: 0, DiscountKind: "bogus"})
	var fieldErrs shared.FieldErrors
	require.True(t, errors.As(err, &fieldErrs))
	require.Contains(t, fieldErrs, "product_id")
	require.Contains(t, fieldErrs, "quantity")
	require.Contains(t, fieldErrs, "discount_kind")
}

func TestRecordIsIdempotent(t *testing.T) {
	store := newMemoryStore(mate())
	svc, metrics, _ := newTestService(store)
	in := SaleInput{ProductID: 1, Quantity: 1, IdempotencyKey: " abc "}

	_, err := svc.Record(context.Background(), owner, in)
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), owner, in)
	require.ErrorIs(t, err, ErrDuplicateSubmission)
	require.Len(t, store.sales, 1)
	require.Equal(t, 9, store.products[1].Stock)
	require.Equal(t, []string{"duplicate"}, metrics.rejected)
}

func TestRecordRetriesSerializationFailures(t *testing.T) {
	store := newMemoryStore(mate())
	store.conflicts = 2
	svc, _, _ := newTestService(store)

	_, err := svc.Record(context.Background(), owner, SaleInput{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, 3, store.recordCall)
}

func TestRecordGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newMemoryStore(mate())
	store.conflicts = maxRecordAttempts
	svc, _, _ := newTestService(store)

	_, err := svc.Record(context.Background(), owner, SaleInput{ProductID: 1, Quantity: 1})
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	require.Empty(t, store.sales)
}

func TestRecordOtherOwnersProduct(t *testing.T) {
	store := newMemoryStore(mate())
	svc, _, _ := newTestService(store)

	_, err := svc.Record(context.Background(), 99, SaleInput{ProductID: 1, Quantity: 1})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestQuote(t *testing.T) {
	store := newMemoryStore(mate())
	svc, _, _ := newTestService(store)

	q, err := svc.Quote(context.Background(), owner, SaleInput{ProductID: 1, Quantity: 12})
	require.NoError(t, err)
	require.True(t, q.ExceedsStock)
	require.Equal(t, -2, q.RemainingStock)
	require.Equal(t, 1200.0, q.SalesTotal)

	_, err = svc.Quote(context.Background(), owner, SaleInput{ProductID: 5, Quantity: 1})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestListPaginates(t *testing.T) {
	store := newMemoryStore(mate())
	svc, _, _ := newTestService(store)
	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), owner, SaleInput{ProductID: 1, Quantity: 1})
		require.NoError(t, err)
	}

	items, pg, err := svc.List(context.Background(), owner, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 3, pg.Total)
	require.Equal(t, 2, pg.TotalPages)
	require.Len(t, items, 1)
	require.Equal(t, int64(1), items[0].ID)
}

func TestSaleMarginPercent(t *testing.T) {
	s := Sale{Product: ProductSnapshot{GrossUnitPrice: 80}, Quantity: 2, SalesTotal: 200}
	require.InDelta(t, 20.0, s.MarginPercent(), 1e-9)
}
