package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esperluet/cv-smarter/internal/artifact"
	"github.com/esperluet/cv-smarter/internal/config"
	"github.com/esperluet/cv-smarter/internal/filestore"
	"github.com/esperluet/cv-smarter/internal/ingest"
	"github.com/esperluet/cv-smarter/internal/pipeline"
	appErr "github.com/esperluet/cv-smarter/internal/pkg/errors"
	"github.com/esperluet/cv-smarter/internal/render"
)

func newTestCVService(t *testing.T, maxUpload int64) *CVService {
	t.Helper()
	backend, err := filestore.New(config.StoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	pl := pipeline.New(
		[]pipeline.Ingestor{ingest.NewTextIngestor()},
		[]pipeline.Renderer{render.NewMarkdownRenderer(), render.NewJSONRenderer()},
		artifact.NewWithBackend(backend),
		pipeline.NewBasicQualityValidator(),
		pipeline.NewPolicyStrategy(false, true, 120),
	)
	return NewCVService(pl, []string{"markdown", "json"}, maxUpload)
}

func cvText() string {
	return strings.Repeat("Seasoned engineer shipping reliable backend services at scale. ", 4)
}

func TestProcess_PlainTextEndToEnd(t *testing.T) {
	svc := newTestCVService(t, 1<<20)
	result, err := svc.Process(context.Background(), "cv.txt", "text/plain", strings.NewReader(cvText()))
	require.NoError(t, err)
	require.Equal(t, strings.TrimSpace(cvText()), strings.TrimSpace(result.CanonicalDocument.Text))
	require.Len(t, result.Artifacts, 2)
	require.Equal(t, "markdown", result.Artifacts[0].Format)
	require.Equal(t, "json", result.Artifacts[1].Format)
	require.NotNil(t, result.Report.QualityScore)
}

func TestProcess_RejectsUnknownContentType(t *testing.T) {
	svc := newTestCVService(t, 1<<20)
	_, err := svc.Process(context.Background(), "cv.zip", "application/zip", strings.NewReader("x"))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestProcess_RejectsOversizeUpload(t *testing.T) {
	svc := newTestCVService(t, 16)
	_, err := svc.Process(context.Background(), "cv.txt", "text/plain", strings.NewReader(cvText()))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
