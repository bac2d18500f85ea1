package ingest

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/esperluet/cv-smarter/internal/pipeline"
)

// TextIngestor is the fallback engine for plain text uploads.
type TextIngestor struct {
	supported map[string]struct{}
}

func NewTextIngestor() *TextIngestor {
	return &TextIngestor{supported: supportedSet([]string{"text/plain"})}
}

func (t *TextIngestor) Name() string {
	return "fallback_text"
}

func (t *TextIngestor) Supports(mediaType string) bool {
	_, ok := t.supported[mediaType]
	return ok
}

func (t *TextIngestor) Ingest(ctx context.Context, doc pipeline.InputDocument, policy pipeline.IngestionPolicy) (*pipeline.IngestionResult, error) {
	_ = ctx
	_ = policy
	payload, err := os.ReadFile(doc.SourcePath)
	if err != nil {
		return nil, err
	}
	text := decodeLossy(payload)
	var warnings []string
	if strings.TrimSpace(text) == "" {
		warnings = append(warnings, "fallback ingestion produced empty or low-quality text")
	}
	return &pipeline.IngestionResult{
		CanonicalDocument: canonical(doc, text),
		Report: pipeline.ProcessingReport{
			EngineName:    t.Name(),
			EngineVersion: "1",
			Warnings:      warnings,
		},
	}, nil
}

// decodeLossy drops invalid UTF-8 sequences instead of failing the ingest.
func decodeLossy(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}
	var b strings.Builder
	b.Grow(len(payload))
	for len(payload) > 0 {
		r, size := utf8.DecodeRune(payload)
		if r != utf8.RuneError || size != 1 {
			b.WriteRune(r)
		}
		payload = payload[size:]
	}
	return b.String()
}
