package domain

import "context"

// Principal is the authenticated caller, created per request from a verified
// token and discarded when the request ends.
type Principal struct {
	UserID int64
	Name   string
	Email  string
	Role   string
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal attached by the auth gate.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
