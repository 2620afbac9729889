package objectstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested key does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the byte-blob interface the renderer depends on.
type Store interface {
	// Walk streams every key under prefix to fn. Walking stops at the
	// first error fn returns.
	Walk(ctx context.Context, prefix string, fn func(key string) error) error
	// ListDirs returns the immediate "directory" names under prefix
	// (common prefixes split on '/'), without the prefix or trailing slash.
	ListDirs(ctx context.Context, prefix string) ([]string, error)
	// Get fetches an object's bytes. Missing keys return ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores an object with the given content type and cache policy.
	Put(ctx context.Context, key string, body []byte, contentType, cacheControl string) error
	// Exists probes a key with a metadata-only request.
	Exists(ctx context.Context, key string) (bool, error)
	// PublicURL returns the browser-facing URL for a key.
	PublicURL(key string) string
}
