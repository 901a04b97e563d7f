package view

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/stockbook/internal/shared"
)

// Pages renders full HTML pages with the session bound data every layout
// needs and redirects with flash messages.
type Pages struct {
	engine *Engine
	csrf   *shared.CSRFManager
	logger *slog.Logger
}

// NewPages builds a Pages helper.
func NewPages(engine *Engine, csrf *shared.CSRFManager, logger *slog.Logger) *Pages {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages{engine: engine, csrf: csrf, logger: logger}
}

// Render writes template name with status.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	var token string
	var flash *shared.FlashMessage
	if sess != nil {
		token, _ = p.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	td := TemplateData{
		Title:         title,
		CSRFToken:     token,
		Flash:         flash,
		CurrentPath:   r.URL.Path,
		Authenticated: shared.UserIDFromContext(r.Context()) != 0,
		Data:          data,
	}
	if err := p.engine.RenderStatus(w, status, name, td); err != nil {
		p.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// RedirectWithFlash queues a flash message and redirects with 303.
func (p *Pages) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
