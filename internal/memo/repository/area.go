package repository

import "context"

// Area is an asynchronous key-value storage area addressed by string keys.
// Values are whole blobs: there is no partial or field-level write.
type Area interface {
	// Get returns the values stored under keys. Missing keys are absent from the map.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// Set replaces the value of every key in items.
	Set(ctx context.Context, items map[string][]byte) error
}
