package storage

import (
	"context"
	"path/filepath"
	"testing"
	"watchtime/internal/storage/interfaces"
	"watchtime/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) interfaces.StoreInterface

func storeDrivers() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) interfaces.StoreInterface {
			return NewMemoryStore()
		},
		"file": func(t *testing.T) interfaces.StoreInterface {
			path := filepath.Join(t.TempDir(), "watchtime.zst")
			return NewFileStore(path, NewFileManager(&testutil.MockCompressor{}, &testutil.MockLogger{}), &testutil.MockLogger{})
		},
		"sqlite": func(t *testing.T) interfaces.StoreInterface {
			s, err := OpenSQLiteStore(":memory:")
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) interfaces.StoreInterface {
			mr := miniredis.RunT(t)
			return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "watchtime:")
		},
	}
}

func TestStore_Contract(t *testing.T) {
	for name, factory := range storeDrivers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			got, err := s.Get(ctx, "2026-10-16")
			require.NoError(t, err)
			assert.Empty(t, got, "missing keys are omitted")

			require.NoError(t, s.Set(ctx, map[string][]byte{
				"2026-10-16": []byte(`{"total":15}`),
				"2026-10-15": []byte(`120`),
				"theme":      []byte(`"dark"`),
			}))

			got, err = s.Get(ctx, "2026-10-16", "2026-10-15", "2026-10-14")
			require.NoError(t, err)
			assert.Equal(t, map[string][]byte{
				"2026-10-16": []byte(`{"total":15}`),
				"2026-10-15": []byte(`120`),
			}, got)

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"2026-10-15", "2026-10-16", "theme"}, keys)

			require.NoError(t, s.Set(ctx, map[string][]byte{"2026-10-16": []byte(`{"total":20}`)}))
			got, err = s.Get(ctx, "2026-10-16")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"total":20}`), got["2026-10-16"])

			require.NoError(t, s.Remove(ctx, "2026-10-15", "never-existed"))
			keys, err = s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"2026-10-16", "theme"}, keys)

			require.NoError(t, s.Clear(ctx))
			keys, err = s.Keys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, map[string][]byte{"k": in}))
	in[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got["k"])

	got["k"][0] = 'y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again["k"])
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	assert.ErrorIs(t, s.Set(ctx, map[string][]byte{"k": nil}), context.Canceled)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisStore_ClearKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "watchtime:")
	defer s.Close()

	require.NoError(t, mr.Set("other:key", "1"))
	require.NoError(t, s.Set(ctx, map[string][]byte{"2026-10-16": []byte("5")}))
	assert.True(t, mr.Exists("watchtime:2026-10-16"))

	require.NoError(t, s.Clear(ctx))
	assert.False(t, mr.Exists("watchtime:2026-10-16"))
	assert.True(t, mr.Exists("other:key"))
}

func TestOpenRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenRedisStore(context.Background(), addr, 0, "watchtime:")
	assert.Error(t, err)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "watchtime.db")

	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, map[string][]byte{"2026-10-16": []byte(`{"total":7}`)}))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"total":7}`), got["2026-10-16"])
}
