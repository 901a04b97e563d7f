// Package audithttp serves the activity timeline and its CSV export.
package audithttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/stockbook/internal/shared"
)

const rateLimit = 10
const rateWindow = time.Minute

// MountRoutes registers the timeline and its rate limited export.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Get("/", h.handleTimeline)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/export", h.handleExport)
	})
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
