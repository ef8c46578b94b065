// Package scheduler runs background clustering on a cron schedule.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/inkfell/cairn/internal/core"
)

// Scheduler triggers incremental organize runs on a cron spec. Runs are
// single-flight: a tick that fires while a run is still in progress is
// skipped, since concurrent runs against one store are not safe.
type Scheduler struct {
	organizer *core.Organizer
	cron      *cron.Cron
	logger    *zap.Logger
	mu        sync.Mutex
}

func New(organizer *core.Organizer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		organizer: organizer,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("clustering scheduler started", zap.String("cron", spec))
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) run() {
	if !s.mu.TryLock() {
		s.logger.Warn("skipping scheduled run, previous run still in progress")
		return
	}
	defer s.mu.Unlock()

	result := s.organizer.OrganizeGraph(context.Background(), false, func(stage string, done, total int) {
		s.logger.Debug("clustering progress",
			zap.String("stage", stage), zap.Int("done", done), zap.Int("total", total))
	})
	if !result.Success {
		s.logger.Error("scheduled clustering run failed", zap.String("error", result.Error))
		return
	}
	s.logger.Info("scheduled clustering run complete",
		zap.Int("clusters_created", result.ClustersCreated),
		zap.Int("events_clustered", result.EventsClustered))
}
