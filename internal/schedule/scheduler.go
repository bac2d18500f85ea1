package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a unit of maintenance work run on a cron schedule.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler runs jobs on standard 5-field cron expressions. A job that
// is still running when its next tick fires is skipped for that tick.
type CronScheduler struct {
	runner  *cron.Cron
	entries map[string]cron.EntryID
	baseCtx context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		runner:  cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

func (s *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("job already scheduled: %s", name)
	}
	entryID, err := s.runner.AddFunc(spec, s.guarded(job, spec))
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.entries[name] = entryID
	logutil.GetLogger(context.Background()).Info("job scheduled",
		zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.baseCtx = ctx
	s.runner.Start()
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (s *CronScheduler) Stop() {
	<-s.runner.Stop().Done()
}

func (s *CronScheduler) guarded(job Job, spec string) func() {
	var running atomic.Bool
	return func() {
		ctx := s.baseCtx
		if ctx == nil {
			ctx = context.Background()
		}
		logger := logutil.GetLogger(ctx).With(
			zap.String("job", job.Name()),
			zap.String("spec", spec),
		)
		if !running.CompareAndSwap(false, true) {
			logger.Info("job skipped: previous run still active")
			return
		}
		defer running.Store(false)

		start := time.Now()
		logger.Info("job started")
		if err := job.Run(ctx); err != nil {
			logger.Error("job finished", zap.Error(err), zap.Duration("duration", time.Since(start)))
			return
		}
		logger.Info("job finished", zap.Duration("duration", time.Since(start)))
	}
}
