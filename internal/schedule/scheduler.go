package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler periodically materializes the current week for every household,
// so a new week's instances exist shortly after Monday begins.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	ids      func() ([]int64, error)
	now      func() time.Time
	notify   func(MaterializeResult)
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a rollover scheduler. notify, if non-nil, is called for
// every household that gained new instances.
func NewScheduler(svc *Service, interval time.Duration, notify func(MaterializeResult), logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		ids:      svc.households.ListIDs,
		now:      time.Now,
		notify:   notify,
		interval: interval,
		logger:   logger,
	}
}

// Start runs one pass immediately, then one per interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.tick()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	ids, err := s.ids()
	if err != nil {
		s.logger.Error("list households", "error", err)
		return
	}

	now := s.now()
	for _, id := range ids {
		result, err := s.service.Materialize(id, now)
		if err != nil {
			s.logger.Error("materialize week", "household_id", id, "error", err)
			continue
		}
		if result.Created > 0 && s.notify != nil {
			s.notify(result)
		}
	}
}
