package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/esperluet/cv-smarter/internal/config"
)

// ErrFileTooLarge is returned by SaveLimited when the stream exceeds the cap.
var ErrFileTooLarge = errors.New("file too large")

type Store interface {
	Type() string
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// Path returns the stable storage identifier for a key, suitable for
	// persisting and for handing to ingestors.
	Path(key string) string
}

type Factory func(cfg config.StoreConfig) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.StoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("file store type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
	return factory(cfg)
}

// SaveLimited copies at most maxSize bytes into the store, failing with
// ErrFileTooLarge when the stream is longer.
func SaveLimited(ctx context.Context, store Store, key string, r io.Reader, maxSize int64) (int64, error) {
	if maxSize <= 0 {
		return store.Save(ctx, key, r)
	}
	limited := &limitedReader{r: r, remaining: maxSize}
	size, err := store.Save(ctx, key, limited)
	if err != nil {
		return 0, err
	}
	if limited.exceeded {
		_ = store.Delete(ctx, key)
		return 0, ErrFileTooLarge
	}
	return size, nil
}

type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// Probe one extra byte to distinguish "exactly at cap" from over.
		var probe [1]byte
		n, err := l.r.Read(probe[:])
		if n > 0 {
			l.exceeded = true
			return 0, io.EOF
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
