package session

import "context"

type contextKey struct{}

// ContextWith attaches the loaded session to ctx for downstream handlers.
func ContextWith(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session loaded by the middleware, or nil when the
// request is unauthenticated.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}
