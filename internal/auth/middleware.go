package auth

import (
	"net/http"
	"strings"

	"github.com/odyssey-erp/stockbook/internal/platform/httpx"
	"github.com/odyssey-erp/stockbook/internal/shared"
)

// LoginPath is where anonymous browsers are sent.
const LoginPath = "/auth/login"

// RequireUser lets signed in sessions through and redirects everyone else
// to the login page.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.UserID() == 0 {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithUserID(r.Context(), sess.UserID())))
	})
}

// BearerToken extracts the token of an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAPIUser authenticates API calls by bearer token, falling back to
// the session only when no Authorization header is sent.
func RequireAPIUser(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID int64
			if r.Header.Get("Authorization") != "" {
				raw, ok := BearerToken(r)
				if !ok {
					httpx.RespondError(w, httpx.ErrUnauthorized)
					return
				}
				id, err := tokens.Verify(raw)
				if err != nil {
					httpx.RespondError(w, httpx.ErrUnauthorized)
					return
				}
				userID = id
			} else if sess := shared.SessionFromContext(r.Context()); sess != nil {
				userID = sess.UserID()
			}
			if userID == 0 {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithUserID(r.Context(), userID)))
		})
	}
}
