package testutil

import (
	"context"
	"sort"
	"sync"
	"time"
	"watchtime/internal/models"
	"watchtime/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu     sync.Mutex
	Data   map[string][]byte
	Clears int
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = make(map[string][]byte)
	m.Clears++
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}

// MockMetrics implements providers.MetricsProviderInterface and counts the
// calls the aggregation path makes.
type MockMetrics struct {
	mu         sync.Mutex
	Updates    map[string]int
	Seconds    map[string]int64
	Migrations map[string]int
	QueueDepth func() float64
	Persists   int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
}

func (m *MockMetrics) IncUpdates(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Updates == nil {
		m.Updates = make(map[string]int)
	}
	m.Updates[result]++
}

func (m *MockMetrics) AddRecordedSeconds(category string, seconds int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Seconds == nil {
		m.Seconds = make(map[string]int64)
	}
	m.Seconds[category] += seconds
}

func (m *MockMetrics) IncMigrations(shape string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Migrations == nil {
		m.Migrations = make(map[string]int)
	}
	m.Migrations[shape]++
}

func (m *MockMetrics) RegisterQueueDepth(fn func() float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueueDepth = fn
}

func (m *MockMetrics) UpdateCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Updates[result]
}

func (m *MockMetrics) MigrationCount(shape string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Migrations[shape]
}

// MockStore implements interfaces.StoreInterface in memory. Latency delays
// every call so tests can widen race windows; the Fn hooks inject failures.
type MockStore struct {
	mu      sync.Mutex
	Data    map[string][]byte
	Latency time.Duration
	GetFn   func(keys []string) error
	SetFn   func(entries map[string][]byte) error
	Sets    int
	Closed  bool
}

func NewMockStore() *MockStore {
	return &MockStore{Data: make(map[string][]byte)}
}

func (m *MockStore) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.GetFn != nil {
		if err := m.GetFn(keys); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, ok := m.Data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *MockStore) Set(ctx context.Context, entries map[string][]byte) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	if m.SetFn != nil {
		if err := m.SetFn(entries); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.Data[k] = append([]byte(nil), v...)
	}
	m.Sets++
	return nil
}

func (m *MockStore) Remove(ctx context.Context, keys ...string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.Data, k)
	}
	return nil
}

func (m *MockStore) Clear(ctx context.Context) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = make(map[string][]byte)
	return nil
}

func (m *MockStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Data))
	for k := range m.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Put stores raw bytes directly, used to seed legacy shapes.
func (m *MockStore) Put(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = raw
}

func (m *MockStore) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Data[key]
	return v, ok
}

// Record decodes the stored record for key, returning an empty one if absent.
func (m *MockStore) Record(key string) *models.DailyRecord {
	raw, _ := m.Raw(key)
	rec, _, err := models.DecodeDailyRecord(raw)
	if err != nil {
		return nil
	}
	return rec
}

// MockSender collects reports and optionally fails.
type MockSender struct {
	mu      sync.Mutex
	Reports []*models.Report
	Err     error
}

func (m *MockSender) Send(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, r)
	return m.Err
}

func (m *MockSender) Sent() []*models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Report, len(m.Reports))
	copy(out, m.Reports)
	return out
}
