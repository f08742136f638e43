// Package storage is the key-value backing store for persisted snapshots.
// Every write replaces the whole value stored under a key; there is no
// merge or conflict detection between writers.
package storage

import "context"

// Store persists opaque snapshots under logical keys.
type Store interface {
	// Get returns nil, nil when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
