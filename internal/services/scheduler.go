package services

import (
	"context"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs periodic maintenance. Today that is dropping sessions
// nobody has touched for longer than the session TTL, for stores that do
// not expire entries themselves.
type Scheduler struct {
	log    *zap.Logger
	cron   *cron.Cron
	purger cache.StalePurger
	ttl    time.Duration
	now    func() time.Time
}

func NewScheduler(log *zap.Logger, purger cache.StalePurger, ttl time.Duration) *Scheduler {
	return &Scheduler{
		log:    log,
		cron:   cron.New(),
		purger: purger,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Start registers the sweep on spec (standard cron syntax or "@every 15m")
// and starts the cron runner.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runSweep); err != nil {
		return err
	}
	s.log.Info("Starting session sweeper...", zap.String("schedule", spec), zap.Duration("ttl", s.ttl))
	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.Sweep(ctx)
}

// Sweep purges stale sessions once and reports how many went.
func (s *Scheduler) Sweep(ctx context.Context) int64 {
	cutoff := s.now().UTC().Add(-s.ttl)
	n, err := s.purger.PurgeStale(ctx, cutoff)
	if err != nil {
		s.log.Error("Failed to purge stale sessions", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.log.Info("Purged stale sessions", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	} else {
		s.log.Debug("No stale sessions to purge")
	}
	return n
}
