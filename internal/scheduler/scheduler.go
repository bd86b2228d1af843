// Package scheduler runs the periodic deposit expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

//go:generate mockgen -source=scheduler.go -destination=mock_scheduler.go -package=scheduler

type Expirer interface {
	Expire(ctx context.Context) ([]uuid.UUID, error)
}

const sweepTimeout = 30 * time.Second

type Scheduler struct {
	cron     *cron.Cron
	expirer  Expirer
	schedule string
	ctx      context.Context
}

func New(expirer Expirer, schedule string) *Scheduler {
	logger := cronLogger{zap.S().Named("cron")}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger)),
		expirer:  expirer,
		schedule: schedule,
		ctx:      context.Background(),
	}
}

// Start registers the sweep and starts the cron loop. Sweeps run against
// ctx, so cancelling it aborts a sweep in progress.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if _, err := s.cron.AddFunc(s.schedule, s.expireDeposits); err != nil {
		return fmt.Errorf("failed to schedule deposit expiry %q: %w", s.schedule, err)
	}
	zap.L().Info("scheduled deposit expiry", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop returns a context that is done once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) expireDeposits() {
	ctx, cancel := context.WithTimeout(s.ctx, sweepTimeout)
	defer cancel()

	ids, err := s.expirer.Expire(ctx)
	if err != nil {
		zap.L().Error("deposit expiry sweep failed", zap.Error(err))
		return
	}
	if len(ids) > 0 {
		zap.L().Info("deposit expiry sweep", zap.Int("expired", len(ids)))
	}
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
