package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/stockbook/internal/auth"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/internal/view"
	_ "github.com/odyssey-erp/stockbook/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateUser(_ context.Context, email, hash string) (*auth.User, error) {
	if s.user != nil && s.user.Email == email {
		return nil, auth.ErrEmailTaken
	}
	s.user = &auth.User{ID: 1, Email: email, PasswordHash: hash, IsActive: true}
	return s.user, nil
}

func (s *stubRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type fixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	repo     *stubRepo
	tokens   *auth.TokenIssuer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{
		user:     &auth.User{ID: 1, Email: "user@test.local", PasswordHash: string(hashed), IsActive: true},
		sessions: map[string]int64{},
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	engine, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenIssuer("jwt-secret", time.Hour)
	pages := view.NewPages(engine, shared.NewCSRFManager("csrf-secret"), logger)
	h := auth.NewHandler(logger, auth.NewService(repo), pages, sessions, tokens)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, req.WithContext(ctx))
			require.NoError(t, sessions.Commit(ctx, w, req, sess))
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	r.Route("/auth", h.MountRoutes)
	r.Route("/api/auth", h.MountAPI)
	r.With(auth.RequireAPIUser(tokens)).Get("/api/me", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int64{"id": shared.UserIDFromContext(req.Context())})
	})
	return fixture{router: r, sessions: sessions, repo: repo, tokens: tokens}
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func login(email, password string) *http.Request {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestLoginPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<form")
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)

	rec := f.do(login("user@test.local", "wrongpass"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Email o contraseña inválidos.")
	require.Empty(t, f.repo.sessions)
}

func TestLoginValidatesEmail(t *testing.T) {
	f := newFixture(t)

	rec := f.do(login("not-an-email", "correctpass"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Correo electrónico inválido.")
}

func TestLoginSuccessRenewsSession(t *testing.T) {
	f := newFixture(t)

	first := f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	anonymous := sessionCookie(t, first, f.sessions.CookieName())

	req := login("USER@test.local ", "correctpass")
	req.AddCookie(anonymous)
	rec := f.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	signedIn := sessionCookie(t, rec, f.sessions.CookieName())
	require.NotEqual(t, anonymous.Value, signedIn.Value)
	require.Equal(t, int64(1), f.repo.sessions[signedIn.Value])

	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(signedIn)
	sess, err := f.sessions.Load(context.Background(), check)
	require.NoError(t, err)
	require.Equal(t, int64(1), sess.UserID())
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(login("user@test.local", "correctpass"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookie := sessionCookie(t, rec, f.sessions.CookieName())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec = f.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, auth.LoginPath, rec.Header().Get("Location"))
	require.Empty(t, f.repo.sessions)

	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(cookie)
	sess, err := f.sessions.Load(context.Background(), check)
	require.NoError(t, err)
	require.Zero(t, sess.UserID())
}

func TestIssueTokenAndCallAPI(t *testing.T) {
	f := newFixture(t)

	body, err := json.Marshal(map[string]string{"email": "user@test.local", "password": "correctpass"})
	require.NoError(t, err)
	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "Bearer", out.TokenType)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+out.Token)
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":1}`, rec.Body.String())
}

func TestIssueTokenRejectsBadPassword(t *testing.T) {
	f := newFixture(t)

	body, err := json.Marshal(map[string]string{"email": "user@test.local", "password": "nope"})
	require.NoError(t, err)
	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAPIUserRejectsForgedToken(t *testing.T) {
	f := newFixture(t)

	forged, _, err := auth.NewTokenIssuer("other-secret", time.Hour).Issue(1)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	require.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	require.Equal(t, http.StatusUnauthorized, f.do(httptest.NewRequest(http.MethodGet, "/api/me", nil)).Code)
}

func TestRegisterRejectsWeakAndDuplicate(t *testing.T) {
	f := newFixture(t)
	svc := auth.NewService(f.repo)

	_, err := svc.Register(context.Background(), "new@test.local", "short")
	require.ErrorIs(t, err, auth.ErrWeakPassword)
	_, err = svc.Register(context.Background(), " User@Test.Local", "longenough")
	require.ErrorIs(t, err, auth.ErrEmailTaken)
}
