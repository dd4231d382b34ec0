package ctxkeys

import (
	"context"

	"github.com/brandpulse/okrops/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	ScopeKey contextKey = "scope"
)

// Scope returns the caller's tenant/brand scope, or the zero value when the
// request carries no valid token.
func Scope(ctx context.Context) model.Scope {
	scope, _ := ctx.Value(ScopeKey).(model.Scope)
	return scope
}

func WithScope(ctx context.Context, scope model.Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}
