// Package credentials holds the key-value stores the account page reads its
// access token from and writes its session-scoped flags to.
package credentials

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("credentials: key not found")

// Store is an opaque key-value persistence. Implementations must treat a
// Remove of an absent key as a no-op.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Present reports whether key holds a non-empty value. Lookup errors other
// than ErrNotFound are returned alongside false.
func Present(ctx context.Context, s Store, key string) (bool, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v != "", nil
}
