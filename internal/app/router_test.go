package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockbook/internal/auth"
	"github.com/odyssey-erp/stockbook/internal/catalog"
	"github.com/odyssey-erp/stockbook/internal/observability"
	"github.com/odyssey-erp/stockbook/internal/sales"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := view.NewEngine()
	require.NoError(t, err)
	sessions := shared.NewSessionManager(client, "stockbook_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	pages := view.NewPages(engine, csrf, logger)
	tokens := auth.NewTokenIssuer("0123456789abcdef0123", time.Hour)

	return NewRouter(RouterParams{
		Logger:         logger,
		Config:         &Config{AppEnv: "test", RateLimitPerMinute: 1000},
		SessionManager: sessions,
		CSRFManager:    csrf,
		Tokens:         tokens,
		AuthHandler:    auth.NewHandler(logger, nil, pages, sessions, tokens),
		CatalogHandler: catalog.NewHandler(logger, nil, pages),
		SalesHandler:   sales.NewHandler(logger, nil, pages),
		Metrics:        observability.NewMetrics(),
	})
}

func TestHealthzAndSecureHeaders(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestPagesRequireLogin(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/", "/products", "/sales/new"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusSeeOther, rec.Code, path)
		require.Equal(t, auth.LoginPath, rec.Header().Get("Location"), path)
	}
}

func TestFormPostWithoutCSRFTokenIsForbidden(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader("name=Mate"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBearerRequestsSkipCSRF(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sales", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIWithoutCredentialsIsUnauthorized(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsAndStatic(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `stockbook_http_requests_total{code="200",route="/healthz"}`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestDashboardWithoutChartsFallsBackToProducts(t *testing.T) {
	rec := httptest.NewRecorder()
	dashboardHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/products", rec.Header().Get("Location"))
}
