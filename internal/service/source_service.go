package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/esperluet/cv-smarter/internal/filestore"
	"github.com/esperluet/cv-smarter/internal/model"
	"github.com/esperluet/cv-smarter/internal/pipeline"
	appErr "github.com/esperluet/cv-smarter/internal/pkg/errors"
	"github.com/esperluet/cv-smarter/internal/repo"
)

const maxSourceNameLength = 120

// SourceUpload is one incoming ground source file.
type SourceUpload struct {
	Name             string
	OriginalFilename string
	ContentType      string
	Content          io.Reader
}

// SourceService manages ground sources: user documents ingested once at
// upload time and kept as canonical text for generation runs.
type SourceService struct {
	sources               *repo.GroundSourceRepo
	store                 filestore.Store
	pipeline              *pipeline.Pipeline
	maxUploadSize         int64
	preserveFailedUploads bool
}

func NewSourceService(sources *repo.GroundSourceRepo, store filestore.Store, pl *pipeline.Pipeline,
	maxUploadSize int64, preserveFailedUploads bool) *SourceService {
	return &SourceService{
		sources:               sources,
		store:                 store,
		pipeline:              pl,
		maxUploadSize:         maxUploadSize,
		preserveFailedUploads: preserveFailedUploads,
	}
}

func (s *SourceService) Create(ctx context.Context, userID string, upload SourceUpload) (*model.GroundSource, *pipeline.ProcessingReport, error) {
	name := strings.TrimSpace(upload.Name)
	if name == "" {
		name = strings.TrimSpace(upload.OriginalFilename)
	}
	if name == "" || len(name) > maxSourceNameLength {
		return nil, nil, appErr.ErrInvalid
	}
	if strings.TrimSpace(upload.OriginalFilename) == "" {
		return nil, nil, appErr.ErrInvalid
	}

	sourceID := newID()
	key := sourceID + filepath.Ext(upload.OriginalFilename)
	size, err := filestore.SaveLimited(ctx, s.store, key, upload.Content, s.maxUploadSize)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.ingestStored(ctx, key, upload)
	if err != nil {
		s.cleanupUpload(ctx, key)
		return nil, nil, err
	}

	hash := sha256.Sum256([]byte(result.CanonicalDocument.Text))
	source := &model.GroundSource{
		ID:               sourceID,
		UserID:           userID,
		Name:             name,
		OriginalFilename: upload.OriginalFilename,
		ContentType:      upload.ContentType,
		SizeBytes:        size,
		StoragePath:      s.store.Path(key),
		CanonicalText:    result.CanonicalDocument.Text,
		ContentHash:      hex.EncodeToString(hash[:]),
		Ctime:            time.Now().Unix(),
	}
	if err := s.sources.Create(ctx, source); err != nil {
		s.cleanupUpload(ctx, key)
		return nil, nil, err
	}
	return source, &result.Report, nil
}

// ingestStored runs the pipeline over the stored upload with no output
// formats. Non-local backends are materialized into a temp file first since
// ingestors read from the filesystem.
func (s *SourceService) ingestStored(ctx context.Context, key string, upload SourceUpload) (*pipeline.ProcessingResult, error) {
	sourcePath := s.store.Path(key)
	if s.store.Type() != "local" {
		localPath, cleanup, err := s.materialize(ctx, key, upload.OriginalFilename)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		sourcePath = localPath
	}
	return s.pipeline.Execute(ctx, pipeline.InputDocument{
		SourcePath:   sourcePath,
		OriginalName: upload.OriginalFilename,
		MediaType:    upload.ContentType,
	}, nil)
}

func (s *SourceService) materialize(ctx context.Context, key, originalFilename string) (string, func(), error) {
	reader, err := s.store.Open(ctx, key)
	if err != nil {
		return "", nil, err
	}
	defer reader.Close()

	tmp, err := os.CreateTemp("", "cvsource_*"+filepath.Ext(originalFilename))
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("materialize upload %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	path := tmp.Name()
	return path, func() { _ = os.Remove(path) }, nil
}

func (s *SourceService) cleanupUpload(ctx context.Context, key string) {
	if s.preserveFailedUploads {
		logutil.GetLogger(ctx).Info("preserving failed upload", zap.String("key", key))
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		logutil.GetLogger(ctx).Warn("delete failed upload", zap.String("key", key), zap.Error(err))
	}
}

func (s *SourceService) List(ctx context.Context, userID string) ([]*model.GroundSource, error) {
	return s.sources.List(ctx, userID)
}

func (s *SourceService) Get(ctx context.Context, userID, sourceID string) (*model.GroundSource, error) {
	return s.sources.Get(ctx, userID, sourceID)
}

func (s *SourceService) Delete(ctx context.Context, userID, sourceID string) error {
	source, err := s.sources.Get(ctx, userID, sourceID)
	if err != nil {
		return err
	}
	if err := s.sources.Delete(ctx, userID, sourceID); err != nil {
		return err
	}
	key := filepath.Base(source.StoragePath)
	if err := s.store.Delete(ctx, key); err != nil {
		logutil.GetLogger(ctx).Warn("delete source file",
			zap.String("source_id", sourceID), zap.String("key", key), zap.Error(err))
	}
	return nil
}
