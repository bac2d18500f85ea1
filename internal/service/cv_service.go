package service

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/esperluet/cv-smarter/internal/pipeline"
	appErr "github.com/esperluet/cv-smarter/internal/pkg/errors"
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/tiff": {},
}

// CVService runs the ingestion pipeline over ad-hoc uploads, producing the
// canonical document plus rendered artifacts in the configured formats.
type CVService struct {
	pipeline      *pipeline.Pipeline
	outputFormats []string
	maxUploadSize int64
}

func NewCVService(pl *pipeline.Pipeline, outputFormats []string, maxUploadSize int64) *CVService {
	return &CVService{pipeline: pl, outputFormats: outputFormats, maxUploadSize: maxUploadSize}
}

func (s *CVService) Process(ctx context.Context, originalFilename, contentType string, content io.Reader) (*pipeline.ProcessingResult, error) {
	if _, ok := allowedContentTypes[contentType]; !ok {
		return nil, appErr.ErrInvalid
	}

	tmp, err := os.CreateTemp("", "cvupload_*"+filepath.Ext(originalFilename))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	limit := io.Reader(content)
	if s.maxUploadSize > 0 {
		limit = io.LimitReader(content, s.maxUploadSize+1)
	}
	written, err := io.Copy(tmp, limit)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	if s.maxUploadSize > 0 && written > s.maxUploadSize {
		return nil, appErr.ErrInvalid
	}

	return s.pipeline.Execute(ctx, pipeline.InputDocument{
		SourcePath:   tmp.Name(),
		OriginalName: originalFilename,
		MediaType:    contentType,
	}, s.outputFormats)
}
