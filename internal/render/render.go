package render

import (
	"bytes"
	"encoding/json"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/esperluet/cv-smarter/internal/pipeline"
)

// JSONRenderer serializes the full canonical document.
type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) OutputFormat() string { return "json" }
func (r *JSONRenderer) MediaType() string    { return "application/json" }

func (r *JSONRenderer) Render(doc pipeline.CanonicalDocument) (string, error) {
	payload := map[string]interface{}{
		"schema_version":    doc.SchemaVersion,
		"source_media_type": doc.SourceMediaType,
		"text":              doc.Text,
		"metadata":          doc.Metadata,
		"extensions":        doc.Extensions,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// MarkdownRenderer passes the canonical text through untouched; canonical
// text is already markdown-shaped.
type MarkdownRenderer struct{}

func NewMarkdownRenderer() *MarkdownRenderer { return &MarkdownRenderer{} }

func (r *MarkdownRenderer) OutputFormat() string { return "markdown" }
func (r *MarkdownRenderer) MediaType() string    { return "text/markdown" }

func (r *MarkdownRenderer) Render(doc pipeline.CanonicalDocument) (string, error) {
	return doc.Text, nil
}

// HTMLRenderer converts the canonical text to HTML via goldmark.
type HTMLRenderer struct {
	md goldmark.Markdown
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (r *HTMLRenderer) OutputFormat() string { return "html" }
func (r *HTMLRenderer) MediaType() string    { return "text/html" }

func (r *HTMLRenderer) Render(doc pipeline.CanonicalDocument) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(doc.Text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
