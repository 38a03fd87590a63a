package interfaces

import "context"

// StoreInterface is a byte-valued key/value store. Keys are day-keys plus
// whatever unrelated settings share the namespace.
type StoreInterface interface {
	// Get returns only the keys that exist.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// Set writes every entry or none of them.
	Set(ctx context.Context, entries map[string][]byte) error
	Remove(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// PersisterInterface is implemented by stores that keep state in memory and
// flush it to durable media on demand.
type PersisterInterface interface {
	Persist() error
	Load() error
}
