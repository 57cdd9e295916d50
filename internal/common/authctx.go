package common

import "context"

type contextKey int

const userIDContextKey contextKey = iota

// WithUserID attaches the authenticated customer id to the request context.
// Cart and order handlers read it back to scope queries to the caller.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// UserID reports the customer id carried by a valid access token. Anonymous
// configurator and cart traffic has none.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
