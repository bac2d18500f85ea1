package artifact

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/esperluet/cv-smarter/internal/config"
	"github.com/esperluet/cv-smarter/internal/filestore"
	"github.com/esperluet/cv-smarter/internal/pipeline"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Store persists rendered pipeline outputs, one object per output format.
type Store struct {
	backend filestore.Store
}

func New(cfg config.ArtifactStoreConfig) (*Store, error) {
	backend, err := filestore.New(config.StoreConfig{Type: cfg.Type, Dir: cfg.Dir, S3: cfg.S3})
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend}, nil
}

func NewWithBackend(backend filestore.Store) *Store {
	return &Store{backend: backend}
}

func (s *Store) SaveArtifact(ctx context.Context, doc pipeline.InputDocument, outputFormat, mediaType, content string) (*pipeline.RenderedArtifact, error) {
	stem := strings.TrimSuffix(filepath.Base(doc.SourcePath), filepath.Ext(doc.SourcePath))
	key := sanitize(stem) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "") + "." + extensionFor(outputFormat)
	if _, err := s.backend.Save(ctx, key, strings.NewReader(content)); err != nil {
		return nil, err
	}
	return &pipeline.RenderedArtifact{
		Format:      outputFormat,
		MediaType:   mediaType,
		StoragePath: s.backend.Path(key),
	}, nil
}

func extensionFor(outputFormat string) string {
	switch outputFormat {
	case "markdown":
		return "md"
	case "json":
		return "json"
	case "html":
		return "html"
	default:
		return outputFormat
	}
}

func sanitize(value string) string {
	sanitized := unsafeChars.ReplaceAllString(value, "_")
	if sanitized == "" {
		return "document"
	}
	return sanitized
}
