// Package requestctx carries the authenticated caller through request contexts.
package requestctx

import "context"

// Principal identifies the caller of one request.
type Principal struct {
	UserID int64
	Role   string
}

// principalContextKey is the context key for the authenticated caller.
type principalContextKey struct{}

// WithPrincipal stores the authenticated caller in context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the caller stored in context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	value, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || value.UserID <= 0 {
		return Principal{}, false
	}
	return value, true
}

// UserIDFromContext returns the caller's user id, or zero when absent.
func UserIDFromContext(ctx context.Context) int64 {
	principal, _ := PrincipalFromContext(ctx)
	return principal.UserID
}
