package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"watchtime/internal/models"
	"watchtime/internal/providers"
	"watchtime/internal/storage/interfaces"
	"watchtime/internal/structures"

	"github.com/coder/quartz"
	"go.uber.org/atomic"
)

const defaultWriteTimeout = 5 * time.Second

var (
	ErrQueueClosed   = errors.New("aggregation queue closed")
	ErrInvalidReport = errors.New("invalid report")
)

type AggregationServiceInterface interface {
	// ApplyUpdate queues a report and waits until it is written.
	ApplyUpdate(ctx context.Context, report *models.Report) error
	// Enqueue queues a report without waiting for the write.
	Enqueue(ctx context.Context, report *models.Report) error
	ResetDay(ctx context.Context, dayKey string) error
	ResetAll(ctx context.Context) error
	Pending() int
	Mode() string
	Stop()
}

type jobKind int

const (
	jobUpdate jobKind = iota
	jobResetDay
	jobResetAll
)

type job struct {
	kind   jobKind
	report *models.Report
	dayKey string
	done   chan error
}

// AggregationService is the only writer of daily records. Updates and resets
// share one FIFO queue consumed by a single worker, so at most one
// read-modify-write is in flight and none can be lost.
type AggregationService struct {
	store        interfaces.StoreInterface
	logger       providers.Logger
	metrics      providers.MetricsProviderInterface
	clock        quartz.Clock
	location     *time.Location
	mode         string
	writeTimeout time.Duration

	queue   chan *job
	pending *atomic.Int64
	mu      sync.RWMutex
	closed  bool
	stopped chan struct{}
}

func NewAggregationService(conf *structures.Config, store interfaces.StoreInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) AggregationServiceInterface {
	return NewAggregationServiceWithClock(conf, store, logger, metrics, quartz.NewReal())
}

func NewAggregationServiceWithClock(conf *structures.Config, store interfaces.StoreInterface, logger providers.Logger, metrics providers.MetricsProviderInterface, clock quartz.Clock) *AggregationService {
	s := &AggregationService{
		store:        store,
		logger:       logger,
		metrics:      metrics,
		clock:        clock,
		location:     loadLocation(conf.Aggregation.Timezone),
		mode:         conf.Aggregation.Mode,
		writeTimeout: conf.Aggregation.WriteTimeout,
		queue:        make(chan *job, max(conf.Aggregation.QueueSize, 0)),
		pending:      atomic.NewInt64(0),
		stopped:      make(chan struct{}),
	}
	if s.mode == "" {
		s.mode = structures.ModeAdditive
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = defaultWriteTimeout
	}
	metrics.RegisterQueueDepth(func() float64 { return float64(s.Pending()) })

	go s.run()
	return s
}

func (s *AggregationService) ApplyUpdate(ctx context.Context, report *models.Report) error {
	j, err := s.updateJob(report, true)
	if err != nil {
		return err
	}
	return s.submitAndWait(ctx, j)
}

func (s *AggregationService) Enqueue(ctx context.Context, report *models.Report) error {
	j, err := s.updateJob(report, false)
	if err != nil {
		return err
	}
	return s.submit(ctx, j)
}

func (s *AggregationService) ResetDay(ctx context.Context, dayKey string) error {
	if !models.IsDayKey(dayKey) {
		return fmt.Errorf("%w %q", models.ErrInvalidDayKey, dayKey)
	}
	return s.submitAndWait(ctx, &job{kind: jobResetDay, dayKey: dayKey, done: make(chan error, 1)})
}

func (s *AggregationService) ResetAll(ctx context.Context) error {
	return s.submitAndWait(ctx, &job{kind: jobResetAll, done: make(chan error, 1)})
}

func (s *AggregationService) Pending() int {
	return int(s.pending.Load())
}

func (s *AggregationService) Mode() string {
	return s.mode
}

// Stop rejects new jobs, lets the worker drain what is already queued and
// returns once it has exited. Safe to call more than once.
func (s *AggregationService) Stop() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.stopped
}

func (s *AggregationService) updateJob(report *models.Report, wait bool) (*job, error) {
	if report == nil {
		return nil, ErrInvalidReport
	}
	r := *report
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	j := &job{kind: jobUpdate, report: &r}
	if wait {
		j.done = make(chan error, 1)
	}
	return j, nil
}

func (s *AggregationService) submit(ctx context.Context, j *job) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrQueueClosed
	}

	s.pending.Inc()
	select {
	case s.queue <- j:
		return nil
	case <-ctx.Done():
		s.pending.Dec()
		return ctx.Err()
	}
}

// submitAndWait returns early if ctx ends, but a dequeued job still runs to
// completion.
func (s *AggregationService) submitAndWait(ctx context.Context, j *job) error {
	if err := s.submit(ctx, j); err != nil {
		return err
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AggregationService) run() {
	defer close(s.stopped)
	for j := range s.queue {
		s.pending.Dec()
		err := s.process(j)
		if j.done != nil {
			j.done <- err
		}
	}
	s.logger.Infof(providers.TypeAggregate, "Aggregation queue drained")
}

func (s *AggregationService) process(j *job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	switch j.kind {
	case jobResetDay:
		if err := s.store.Remove(ctx, j.dayKey); err != nil {
			s.logger.Errorf(providers.TypeAggregate, "Reset of %s failed: %s", j.dayKey, err)
			return fmt.Errorf("reset %s: %w", j.dayKey, err)
		}
		s.metrics.IncUpdates(providers.UpdateReset)
		s.logger.Infof(providers.TypeAggregate, "Reset day %s", j.dayKey)
		return nil
	case jobResetAll:
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Errorf(providers.TypeAggregate, "Reset of all records failed: %s", err)
			return fmt.Errorf("reset all: %w", err)
		}
		s.metrics.IncUpdates(providers.UpdateReset)
		s.logger.Infof(providers.TypeAggregate, "Reset all records")
		return nil
	default:
		err := s.applyReport(ctx, j.report)
		if err != nil {
			s.metrics.IncUpdates(providers.UpdateFailed)
			s.logger.Errorf(providers.TypeAggregate, "Update for %s failed: %s", j.report.Domain, err)
			return err
		}
		s.metrics.IncUpdates(providers.UpdateApplied)
		s.metrics.AddRecordedSeconds(j.report.Category, j.report.Seconds)
		return nil
	}
}

func (s *AggregationService) applyReport(ctx context.Context, r *models.Report) error {
	start := s.clock.Now()
	key := models.DayKey(start, s.location)

	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	rec, shape, err := models.DecodeDailyRecord(raw[key])
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	if shape.Legacy() {
		s.metrics.IncMigrations(shape.String())
		s.logger.Debugf(providers.TypeAggregate, "Migrating %s from %s shape", key, shape)
	}

	rec.AddWatch(r)
	if s.mode == structures.ModeDedup {
		added := rec.AddTotalDedup(r.Seconds, start.Unix())
		if added < r.Seconds {
			s.logger.Debugf(providers.TypeAggregate, "Dedup counted %d of %d seconds from %s", added, r.Seconds, r.Domain)
		}
	} else {
		rec.AddTotal(r.Seconds)
	}

	encoded, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, map[string][]byte{key: encoded}); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	s.metrics.ObservePersistenceDuration(s.clock.Since(start))
	return nil
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
