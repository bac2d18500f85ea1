package artifact

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esperluet/cv-smarter/internal/config"
	"github.com/esperluet/cv-smarter/internal/pipeline"
)

func TestSaveArtifact_KeyIncludesStemAndExtension(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.ArtifactStoreConfig{Type: "local", Dir: dir})
	require.NoError(t, err)

	artifact, err := store.SaveArtifact(context.Background(),
		pipeline.InputDocument{SourcePath: "/tmp/My CV (final).pdf"},
		"markdown", "text/markdown", "# content")
	require.NoError(t, err)
	require.Equal(t, "markdown", artifact.Format)
	require.Equal(t, "text/markdown", artifact.MediaType)

	base := strings.TrimPrefix(artifact.StoragePath, dir+"/")
	require.True(t, strings.HasPrefix(base, "My_CV__final_"))
	require.True(t, strings.HasSuffix(base, ".md"))
	require.NotContains(t, base, " ")

	data, err := os.ReadFile(artifact.StoragePath)
	require.NoError(t, err)
	require.Equal(t, "# content", string(data))
}

func TestSaveArtifact_UniqueKeysPerCall(t *testing.T) {
	store, err := New(config.ArtifactStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)

	doc := pipeline.InputDocument{SourcePath: "/tmp/cv.pdf"}
	first, err := store.SaveArtifact(context.Background(), doc, "json", "application/json", "{}")
	require.NoError(t, err)
	second, err := store.SaveArtifact(context.Background(), doc, "json", "application/json", "{}")
	require.NoError(t, err)
	require.NotEqual(t, first.StoragePath, second.StoragePath)
}

func TestSaveArtifact_UnknownFormatKeepsFormatAsExtension(t *testing.T) {
	store, err := New(config.ArtifactStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	artifact, err := store.SaveArtifact(context.Background(),
		pipeline.InputDocument{SourcePath: "/tmp/cv.pdf"}, "html", "text/html", "<p>x</p>")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(artifact.StoragePath, ".html"))
}
