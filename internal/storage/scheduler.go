package storage

import (
	"sync"
	"time"
	"watchtime/internal/providers"
	"watchtime/internal/storage/interfaces"
	"watchtime/internal/structures"

	"github.com/roylee0704/gron"
)

// Scheduler periodically flushes stores that keep state in memory. Stores
// that write through (sqlite, redis) make every method a no-op.
type Scheduler struct {
	config    *structures.Config
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	persister interfaces.PersisterInterface
	cron      *gron.Cron
	opsMu     sync.Mutex
}

func (s *Scheduler) Init() {
	if s.persister == nil {
		return
	}
	s.cron = gron.New()
	interval := s.config.Storage.SaveInterval

	s.cron.AddFunc(gron.Every(interval), func() {
		if err := s.persist(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return
		}
		s.logger.Debugf(providers.TypeApp, "Persisted data to file %s", s.config.Storage.FilePath)
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	if s.persister == nil {
		return nil
	}
	s.opsMu.Lock()
	defer s.opsMu.Unlock()
	return s.persister.Load()
}

func (s *Scheduler) Persist() error {
	if s.persister == nil {
		return nil
	}
	s.logger.Infof(providers.TypeApp, "Persisting watch-time records to %s...", s.config.Storage.FilePath)
	if err := s.persist(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func (s *Scheduler) persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.persister.Persist()
	s.metrics.ObservePersistenceDuration(time.Since(start))
	return err
}

func NewScheduler(config *structures.Config, logger providers.Logger, store interfaces.StoreInterface, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	s := &Scheduler{
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
	if p, ok := store.(interfaces.PersisterInterface); ok {
		s.persister = p
	}
	return s
}
