package storage

import (
	"context"
	"sort"
	"sync"
	"watchtime/internal/storage/interfaces"
)

// MemoryStore keeps everything in process memory. Values are copied on the
// way in and out so callers never share buffers with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	version uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.entries[k]; ok {
			out[k] = cloneBytes(v)
		}
	}
	return out, nil
}

func (m *MemoryStore) Set(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range entries {
		m.entries[k] = cloneBytes(v)
	}
	m.version++
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	m.version++
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string][]byte)
	m.version++
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Snapshot copies the full content along with the write counter it reflects.
func (m *MemoryStore) Snapshot() (map[string][]byte, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.entries))
	for k, v := range m.entries {
		out[k] = cloneBytes(v)
	}
	return out, m.version
}

// Replace swaps the full content, used when restoring from a snapshot.
func (m *MemoryStore) Replace(entries map[string][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string][]byte, len(entries))
	for k, v := range entries {
		m.entries[k] = cloneBytes(v)
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ interfaces.StoreInterface = (*MemoryStore)(nil)
