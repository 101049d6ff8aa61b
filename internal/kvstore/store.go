// Package kvstore holds the key-value backends the blog collection is
// persisted in. Every backend stores an opaque string value per key and
// overwrites it as a whole on Set.
package kvstore

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrInvalidKey  = errors.New("invalid key")
)

type Store interface {
	// Get returns ErrKeyNotFound if the key was never set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
