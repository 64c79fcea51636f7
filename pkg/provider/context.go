package provider

import (
	"context"
	"errors"

	"github.com/ava-labs/token-catalog/pkg/tokens"
)

// ErrMissingProvider is returned when the catalog is looked up outside a provider scope.
var ErrMissingProvider = errors.New("token catalog accessed outside of a provider")

type catalogKey struct{}

// WithCatalog returns a copy of ctx in which the catalog is visible to FromContext.
func WithCatalog(ctx context.Context, c *tokens.Catalog) context.Context {
	return context.WithValue(ctx, catalogKey{}, c)
}

// FromContext returns the catalog scoped to ctx, or ErrMissingProvider. It never returns
// an empty catalog in place of a missing one.
func FromContext(ctx context.Context) (*tokens.Catalog, error) {
	c, ok := ctx.Value(catalogKey{}).(*tokens.Catalog)
	if !ok || c == nil {
		return nil, ErrMissingProvider
	}
	return c, nil
}

// MustFromContext is like FromContext but panics when no provider is in scope.
func MustFromContext(ctx context.Context) *tokens.Catalog {
	c, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return c
}
