package charthttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/stockbook/internal/shared"
)

// MountRoutes registers the chart pages and the CSV export. Exports are
// rate limited per user.
func (h *Handler) MountRoutes(r chi.Router, exportsPerMinute int) {
	if h == nil {
		return
	}
	if exportsPerMinute <= 0 {
		exportsPerMinute = 10
	}
	limiter := httprate.Limit(exportsPerMinute, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/balance", h.Balance)
	r.Get("/sales", h.Sales)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/export/{chart}", h.CSV)
	})
}

// MountAPI registers the chart JSON endpoint.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/{chart}", h.apiChart)
}

func rateLimitKey(r *http.Request) (string, error) {
	if id := shared.UserIDFromContext(r.Context()); id != 0 {
		return "user:" + strconv.FormatInt(id, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
