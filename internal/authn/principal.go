// Package authn is Component E: HTTP Basic credential decoding and the
// three resolution policies §4.E's router uses (strict, path-user
// fallback, email-user fallback).
package authn

import "context"

// Principal is the authenticated user attached to a request context.
type Principal struct {
	UserID   string
	Username string
	Email    string
}

type ctxKey int

const principalKey ctxKey = 1

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}
