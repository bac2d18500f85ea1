package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/esperluet/cv-smarter/internal/trace"
)

type TraceCleanupJob struct {
	store         *trace.JSONLStore
	retentionDays int
}

func NewTraceCleanupJob(store *trace.JSONLStore, retentionDays int) *TraceCleanupJob {
	return &TraceCleanupJob{store: store, retentionDays: retentionDays}
}

func (j *TraceCleanupJob) Name() string {
	return "trace_cleanup"
}

func (j *TraceCleanupJob) Run(ctx context.Context) error {
	if j.store == nil || j.retentionDays <= 0 {
		return nil
	}
	maxAge := time.Duration(j.retentionDays) * 24 * time.Hour
	removed, err := j.store.Prune(ctx, maxAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("trace files pruned", zap.Int("removed", removed))
	}
	return nil
}
