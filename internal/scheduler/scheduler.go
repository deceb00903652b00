// Package scheduler runs the periodic maintenance jobs of the bank.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// LimitResetter starts new withdrawal-limit windows.
type LimitResetter interface {
	ResetExpired(ctx context.Context, now time.Time) ([]string, error)
}

// Scheduler wraps a cron runner. Jobs never overlap with themselves.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Scheduler that logs through logger.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		logger: logger,
		now:    time.Now,
	}
}

// AddLimitReset schedules resetter on spec (standard cron syntax or descriptors like "@hourly").
func (s *Scheduler) AddLimitReset(spec string, resetter LimitResetter) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runLimitReset(context.Background(), resetter)
	})
	if err != nil {
		return fmt.Errorf("invalid limit reset schedule %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) runLimitReset(ctx context.Context, resetter LimitResetter) {
	reset, err := resetter.ResetExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("withdrawal limit reset failed", zap.Error(err))
		return
	}
	s.logger.Info("withdrawal limit reset finished", zap.Strings("shareTypes", reset))
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
