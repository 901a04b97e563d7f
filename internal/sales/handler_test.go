package sales

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockbook/internal/platform/httpx"
	"github.com/odyssey-erp/stockbook/internal/pricing"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
)

func newTestRouter(t *testing.T, store *memoryStore) http.Handler {
	t.Helper()
	svc, _, _ := newTestService(store)
	engine, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, view.NewPages(engine, shared.NewCSRFManager("test-secret"), logger))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithUserID(req.Context(), owner)))
		})
	})
	r.Route("/sales", h.MountRoutes)
	r.Route("/api/sales", h.MountAPI)
	return r
}

func sendJSON(t *testing.T, h http.Handler, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIRecordSale(t *testing.T) {
	store := newMemoryStore(mate())
	router := newTestRouter(t, store)

	rec := sendJSON(t, router, "/api/sales", map[string]any{"product_id": 1, "quantity": 2}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sale Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sale))
	require.Equal(t, 200.0, sale.SalesTotal)
	require.Equal(t, pricing.Percentage, sale.Discount.Kind)
	require.Equal(t, 8, store.products[1].Stock)
}

func TestAPIRecordSaleIdempotencyHeader(t *testing.T) {
	store := newMemoryStore(mate())
	router := newTestRouter(t, store)
	header := http.Header{"Idempotency-Key": {"k-1"}}

	rec := sendJSON(t, router, "/api/sales", map[string]any{"product_id": 1, "quantity": 1}, header)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = sendJSON(t, router, "/api/sales", map[string]any{"product_id": 1, "quantity": 1}, header)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Len(t, store.sales, 1)
}

func TestAPIRecordSaleExceedingStock(t *testing.T) {
	store := newMemoryStore(mate())
	router := newTestRouter(t, store)

	rec := sendJSON(t, router, "/api/sales", map[string]any{"product_id": 1, "quantity": 11}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Contains(t, problem.Errors, "quantity")
}

func TestAPIQuote(t *testing.T) {
	store := newMemoryStore(mate())
	router := newTestRouter(t, store)

	rec := sendJSON(t, router, "/api/sales/quote", map[string]any{
		"product_id":        1,
		"quantity":          4,
		"discount_kind":     "amount",
		"discount":          50,
		"extra_charge_kind": "percentage",
		"extra_charge":      10,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quote pricing.SaleQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.Equal(t, 385.0, quote.SalesTotal)
	require.Equal(t, 6, quote.RemainingStock)
	require.False(t, quote.ExceedsStock)
	require.Empty(t, store.sales)
}

func TestAPIListSales(t *testing.T) {
	store := newMemoryStore(mate())
	router := newTestRouter(t, store)
	rec := sendJSON(t, router, "/api/sales", map[string]any{"product_id": 1, "quantity": 1}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sales", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []Sale `json:"items"`
		Total int    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	require.Equal(t, "Mate", body.Items[0].Product.Name)
}

func TestFormRecordSaleRedirects(t *testing.T) {
	store := newMemoryStore(mate())
	router := newTestRouter(t, store)

	form := url.Values{"product_id": {"1"}, "quantity": {"2"}, "discount": {""}, "idempotency_key": {"form-1"}}
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/sales/new", rec.Header().Get("Location"))
	require.Len(t, store.sales, 1)
}

func TestFormExceedingStockRerenders(t *testing.T) {
	store := newMemoryStore(mate())
	router := newTestRouter(t, store)

	form := url.Values{"product_id": {"1"}, "quantity": {"20"}}
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "La cantidad supera el stock disponible.")
	require.Empty(t, store.sales)
}
