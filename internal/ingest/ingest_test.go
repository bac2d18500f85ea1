package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esperluet/cv-smarter/internal/pipeline"
)

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "cv.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestDocxIngest_ExtractsParagraphs(t *testing.T) {
	path := writeDocx(t, `<w:document><w:body>`+
		`<w:p><w:r><w:t>John Doe</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Software</w:t></w:r><w:tab/><w:r><w:t>Engineer</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	ing := NewDocxIngestor()
	result, err := ing.Ingest(context.Background(), pipeline.InputDocument{
		SourcePath:   path,
		OriginalName: "cv.docx",
		MediaType:    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}, pipeline.IngestionPolicy{})
	require.NoError(t, err)
	require.Equal(t, "John Doe\nSoftware Engineer", result.CanonicalDocument.Text)
	require.Equal(t, "docx", result.Report.EngineName)
	require.Equal(t, "cv.docx", result.CanonicalDocument.Metadata["original_name"])
	require.Equal(t, "1.0", result.CanonicalDocument.SchemaVersion)
}

func TestDocxIngest_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "bad.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	ing := NewDocxIngestor()
	_, err = ing.Ingest(context.Background(), pipeline.InputDocument{SourcePath: path, MediaType: "application/msword"}, pipeline.IngestionPolicy{})
	require.Error(t, err)
}

func TestDocxSupports(t *testing.T) {
	ing := NewDocxIngestor()
	require.True(t, ing.Supports("application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
	require.True(t, ing.Supports("application/msword"))
	require.False(t, ing.Supports("application/pdf"))
}

func TestTextIngest_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain cv text"), 0o644))

	ing := NewTextIngestor()
	result, err := ing.Ingest(context.Background(), pipeline.InputDocument{
		SourcePath: path, OriginalName: "cv.txt", MediaType: "text/plain",
	}, pipeline.IngestionPolicy{})
	require.NoError(t, err)
	require.Equal(t, "plain cv text", result.CanonicalDocument.Text)
	require.Equal(t, "fallback_text", result.Report.EngineName)
	require.Empty(t, result.Report.Warnings)
}

func TestTextIngest_DropsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte{'o', 'k', 0xff, 0xfe, '!'}, 0o644))

	ing := NewTextIngestor()
	result, err := ing.Ingest(context.Background(), pipeline.InputDocument{SourcePath: path, MediaType: "text/plain"}, pipeline.IngestionPolicy{})
	require.NoError(t, err)
	require.Equal(t, "ok!", result.CanonicalDocument.Text)
}

func TestTextIngest_EmptyFileWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n "), 0o644))

	ing := NewTextIngestor()
	result, err := ing.Ingest(context.Background(), pipeline.InputDocument{SourcePath: path, MediaType: "text/plain"}, pipeline.IngestionPolicy{})
	require.NoError(t, err)
	require.Contains(t, result.Report.Warnings, "fallback ingestion produced empty or low-quality text")
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a  b\t c", "a b c"},
		{"a\n\n\nb", "a\nb"},
		{"  padded  ", "padded"},
		{"nbsp here", "nbsp here"},
		{"mixed \r\n lines", "mixed\nlines"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, normalizeWhitespace(tt.in), "input %q", tt.in)
	}
}

func TestPDFSupports(t *testing.T) {
	ing := NewPDFIngestor(nil)
	require.True(t, ing.Supports("application/pdf"))
	require.True(t, ing.Supports("image/png"))
	require.True(t, ing.Supports("image/jpeg"))
	require.False(t, ing.Supports("text/plain"))
}
