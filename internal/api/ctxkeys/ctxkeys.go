// Package ctxkeys holds typed context keys shared across the API layer,
// extracted to a leaf package to avoid import cycles between api and
// api/handlers.
package ctxkeys

import "context"

// Key is the named type for all API context keys. Using a named
// type avoids collisions with string keys from other packages at runtime
// (context.Value compares both type and value).
type Key string

// UserID is the context key for the caller id attached to a request. No
// handler in this module reads it; the status handler takes the owner from
// its userId query parameter.
const UserID Key = "user_id"

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}
