// Package headers builds the outgoing headers of authenticated member
// backend requests.
package headers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dangun/myaccount/internal/credentials"
	"github.com/dangun/myaccount/internal/domain"
)

// Builder reads the access token at request time, so a token removed by one
// flow is never sent by the next.
type Builder struct {
	store credentials.Store
	key   string
}

// New creates a Builder reading the access token from store.
func New(store credentials.Store) *Builder {
	return &Builder{store: store, key: domain.AccessTokenKey}
}

// Build returns the JSON headers, carrying a bearer Authorization header
// when a token is stored.
func (b *Builder) Build(ctx context.Context) (http.Header, error) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")

	token, err := b.store.Get(ctx, b.key)
	switch {
	case errors.Is(err, credentials.ErrNotFound):
		return h, nil
	case err != nil:
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h, nil
}
