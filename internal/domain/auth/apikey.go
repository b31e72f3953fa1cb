// Package auth defines the admin API key model.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no active API key matches a hash.
var ErrKeyNotFound = errors.New("api key not found")

// APIKey is a stored admin credential. Only the HMAC hash of the raw key is
// persisted.
type APIKey struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// Repository looks up API keys by their hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
}
