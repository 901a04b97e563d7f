package shared

import "context"

type (
	sessionContextKey struct{}
	userContextKey    struct{}
)

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithUserID stores the authenticated owner id.
func ContextWithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userContextKey{}, id)
}

// UserIDFromContext returns the authenticated owner id, or 0.
func UserIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userContextKey{}).(int64)
	return id
}
