package providers

import (
	"math"
	"watchtime/internal/structures"

	"github.com/coocood/freecache"
)

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
}

// CacheProvider holds encoded day, rollup and day-list responses. Entries
// expire after cache.ttl, so a read may trail the aggregation queue by at
// most that long; resets clear it outright.
type CacheProvider struct {
	responses  *freecache.Cache
	ttlSeconds int
	logger     Logger
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Response cache disabled, reads go to storage")
		return &noopCache{}
	}

	// freecache expires in whole seconds; round up so 1500ms never becomes 1s.
	ttlSeconds := max(int(math.Ceil(conf.Cache.TTL.Seconds())), 1)
	logger.Infof(TypeApp, "Response cache: %dMB, entries live %ds", conf.Cache.Size, ttlSeconds)

	return &CacheProvider{
		responses:  freecache.NewCache(conf.Cache.Size * 1024 * 1024),
		ttlSeconds: ttlSeconds,
		logger:     logger,
	}
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	body, err := c.responses.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return body, true
}

// Set skips bodies freecache rejects, such as a rollup over a long range
// that exceeds one segment; those are simply recomputed.
func (c *CacheProvider) Set(key string, value []byte) {
	if err := c.responses.Set([]byte(key), value, c.ttlSeconds); err != nil {
		c.logger.Debugf(TypeGet, "Response for %s not cached (%d bytes): %s", key, len(value), err)
	}
}

// Clear drops every cached response after a day or full reset.
func (c *CacheProvider) Clear() {
	c.responses.Clear()
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Clear()                      {}
