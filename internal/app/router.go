package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/odyssey-erp/stockbook/internal/audit/http"
	"github.com/odyssey-erp/stockbook/internal/auth"
	"github.com/odyssey-erp/stockbook/internal/catalog"
	charthttp "github.com/odyssey-erp/stockbook/internal/charts/http"
	"github.com/odyssey-erp/stockbook/internal/observability"
	"github.com/odyssey-erp/stockbook/internal/platform/httpx"
	"github.com/odyssey-erp/stockbook/internal/sales"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Tokens         *auth.TokenIssuer
	AuthHandler    *auth.Handler
	CatalogHandler *catalog.Handler
	SalesHandler   *sales.Handler
	ChartsHandler  *charthttp.Handler
	AuditHandler   *audithttp.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router serving the web pages and the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/", dashboardHandler(params.ChartsHandler))
		r.Route("/products", params.CatalogHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		if params.ChartsHandler != nil {
			exportLimit := 0
			if params.Config != nil {
				exportLimit = params.Config.ExportsPerMinute
			}
			r.Route("/charts", func(r chi.Router) {
				params.ChartsHandler.MountRoutes(r, exportLimit)
			})
		}
		if params.AuditHandler != nil {
			r.Route("/activity", params.AuditHandler.MountRoutes)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountAPI)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAPIUser(params.Tokens))
			r.Route("/products", params.CatalogHandler.MountAPI)
			r.Route("/sales", params.SalesHandler.MountAPI)
			if params.ChartsHandler != nil {
				r.Route("/charts", params.ChartsHandler.MountAPI)
			}
		})
	})

	return r
}

// dashboardHandler serves the chart dashboard, or the product list when
// charts are not wired.
func dashboardHandler(charts *charthttp.Handler) http.HandlerFunc {
	if charts == nil {
		return func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/products", http.StatusSeeOther)
		}
	}
	return charts.Dashboard
}

// staticCacheHandler lets browsers cache static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
