package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockbook/internal/platform/httpx"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	pages          *view.Pages
	sessionManager *shared.SessionManager
	tokens         *TokenIssuer
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages, sessions *shared.SessionManager, tokens *TokenIssuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		pages:          pages,
		sessionManager: sessions,
		tokens:         tokens,
		validator:      shared.NewValidator(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// MountAPI registers the token endpoint.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/token", h.issueToken)
}

type loginForm struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.UserID() != 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "pages/login.html", "Ingresar", loginPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if err := shared.Validate(h.validator, form); err != nil {
		var fieldErrs shared.FieldErrors
		if !errors.As(err, &fieldErrs) {
			fieldErrs = shared.FieldErrors{"general": "No se pudo validar el formulario."}
		}
		h.renderLoginError(w, r, form, fieldErrs)
		return
	}

	user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.renderLoginError(w, r, form, map[string]string{"general": "Email o contraseña inválidos."})
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.sessionManager.Renew(sess)
	sess.SetUser(user.ID)
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Bienvenido de nuevo."})
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.logger.Info("user signed in", slog.Int64("user_id", user.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, form loginForm, errs map[string]string) {
	form.Password = ""
	h.pages.Render(w, r, http.StatusBadRequest, "pages/login.html", "Ingresar", loginPageData{Form: form, Errors: errs})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.Validate(h.validator, form); err != nil {
		var fieldErrs shared.FieldErrors
		if errors.As(err, &fieldErrs) {
			httpx.ValidationProblem(w, fieldErrs)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	token, expires, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{Token: token, TokenType: "Bearer", ExpiresAt: expires})
}
