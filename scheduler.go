package main

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// forecastRefresher is the part of SearchController the scheduler needs.
type forecastRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically re-fetches the forecast for the current city so a
// long-running session does not keep showing stale conditions.
type Scheduler struct {
	refresher   forecastRefresher
	logger      *slog.Logger
	refreshChan <-chan time.Time
	stop        chan struct{}
	done        chan struct{}
	ticker      *time.Ticker
	timeout     time.Duration
	refreshJobs func()

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopOnce sync.Once
}

// NewScheduler returns a Scheduler that, once started, refreshes the forecast
// every interval.
func NewScheduler(refresher forecastRefresher, logger *slog.Logger, interval time.Duration) *Scheduler {
	ticker := time.NewTicker(interval)
	s := &Scheduler{
		refresher:   refresher,
		logger:      logger,
		refreshChan: ticker.C,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		ticker:      ticker,
		timeout:     30 * time.Second,
	}
	s.refreshJobs = s.runRefreshJob
	return s
}

// Start launches the refresh loop. Calls after the first, or after Stop, do
// nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.refreshChan:
				s.logger.Debug("scheduler: running forecast refresh")
				s.refreshJobs()
			case <-s.stop:
				s.logger.Info("scheduler: stopping")
				s.ticker.Stop()
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for a running job to finish. It is
// safe to call more than once and before Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		started := s.started
		s.mu.Unlock()

		close(s.stop)
		if !started {
			s.ticker.Stop()
			return
		}
		<-s.done
	})
}

func (s *Scheduler) runRefreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn("scheduler: forecast refresh failed", "error", err)
		return
	}
	s.logger.Debug("scheduler: forecast refresh completed")
}
