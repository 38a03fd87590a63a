package storage

import (
	"context"
	"fmt"
	"time"
	"watchtime/internal/providers"
	"watchtime/internal/storage/interfaces"
	"watchtime/internal/structures"
)

const defaultDialTimeout = 5 * time.Second

// NewStoreProvider builds the store selected by storage.driver.
func NewStoreProvider(conf *structures.Config, logger providers.Logger) (interfaces.StoreInterface, error) {
	s := conf.Storage
	switch s.Driver {
	case structures.DriverMemory:
		logger.Warnf(providers.TypeApp, "Using in-memory storage, records are lost on exit")
		return NewMemoryStore(), nil
	case structures.DriverFile:
		compressor, err := NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		logger.Infof(providers.TypeApp, "Using file storage at %s", s.FilePath)
		return NewFileStore(s.FilePath, NewFileManager(compressor, logger), logger), nil
	case structures.DriverSQLite:
		logger.Infof(providers.TypeApp, "Using sqlite storage at %s", s.SQLitePath)
		return OpenSQLiteStore(s.SQLitePath)
	case structures.DriverRedis:
		logger.Infof(providers.TypeApp, "Using redis storage at %s db %d", s.RedisAddr, s.RedisDB)
		timeout := conf.Aggregation.WriteTimeout
		if timeout <= 0 {
			timeout = defaultDialTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return OpenRedisStore(ctx, s.RedisAddr, s.RedisDB, s.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.Driver)
	}
}
