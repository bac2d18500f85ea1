package trace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	EventStageStarted   = "stage_started"
	EventStageCompleted = "stage_completed"
	EventStageFailed    = "stage_failed"
)

type Event struct {
	RunID     string                 `json:"run_id"`
	Stage     string                 `json:"stage"`
	Event     string                 `json:"event"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Store records generation trace events, append-only per run. Recording is
// fire-and-forget: a trace write must never fail a generation run.
type Store interface {
	Record(ctx context.Context, event Event)
}

// JSONLStore writes one file per run under a base directory, one JSON object
// per line.
type JSONLStore struct {
	baseDir string
}

func NewJSONLStore(baseDir string) (*JSONLStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &JSONLStore{baseDir: baseDir}, nil
}

func (s *JSONLStore) Record(ctx context.Context, event Event) {
	line, err := json.Marshal(event)
	if err != nil {
		logutil.GetLogger(ctx).Error("encode trace event", zap.Error(err), zap.String("run_id", event.RunID))
		return
	}
	path := filepath.Join(s.baseDir, event.RunID+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logutil.GetLogger(ctx).Error("open trace file", zap.Error(err), zap.String("run_id", event.RunID))
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		logutil.GetLogger(ctx).Error("write trace event", zap.Error(err), zap.String("run_id", event.RunID))
	}
}

// Prune removes run trace files older than maxAge. Used by the retention
// cron job.
func (s *JSONLStore) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil {
			logutil.GetLogger(ctx).Error("remove trace file", zap.Error(err), zap.String("file", entry.Name()))
			continue
		}
		removed++
	}
	return removed, nil
}
