package scheduler

import (
	"context"
	"time"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/usage"
	"github.com/Akogare-Cafe/vibebuff-sub007/pkg/logger"
	"go.uber.org/zap"
)

// Scheduler triggers the usage retention prune on an interval. The prune
// itself is idempotent and batch-bounded, so the cadence here is a knob,
// not a correctness requirement.
type Scheduler struct {
	usageService usage.Service
	interval     time.Duration
	logger       *logger.Logger
	stop         chan struct{}
}

func NewScheduler(usageService usage.Service, interval time.Duration, logger *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		usageService: usageService,
		interval:     interval,
		logger:       logger,
		stop:         make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	// Run immediately at startup
	s.runPrune()

	s.logger.Info("Usage prune scheduler initialized",
		zap.Duration("interval", s.interval),
	)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runPrune()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the prune loop. Safe to call once.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) runPrune() {
	ctx := context.Background()
	startTime := time.Now()

	deleted, err := s.usageService.PruneOlderThan(ctx)
	if err != nil {
		s.logger.Error("Failed to prune usage events",
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Completed usage prune run",
		zap.Int64("deleted", deleted),
		zap.Duration("duration", time.Since(startTime)),
	)
}
