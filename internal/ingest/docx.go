package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/esperluet/cv-smarter/internal/pipeline"
)

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// DocxIngestor reads the main document part of the OOXML zip container and
// strips markup. Good enough for CV bodies; embedded objects are ignored.
type DocxIngestor struct {
	supported map[string]struct{}
}

func NewDocxIngestor() *DocxIngestor {
	return &DocxIngestor{
		supported: supportedSet([]string{
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/msword",
		}),
	}
}

func (d *DocxIngestor) Name() string {
	return "docx"
}

func (d *DocxIngestor) Supports(mediaType string) bool {
	_, ok := d.supported[mediaType]
	return ok
}

func (d *DocxIngestor) Ingest(ctx context.Context, doc pipeline.InputDocument, policy pipeline.IngestionPolicy) (*pipeline.IngestionResult, error) {
	_ = ctx
	_ = policy
	data, err := os.ReadFile(doc.SourcePath)
	if err != nil {
		return nil, err
	}
	text, err := extractDocxText(data)
	if err != nil {
		return nil, err
	}
	return &pipeline.IngestionResult{
		CanonicalDocument: canonical(doc, text),
		Report: pipeline.ProcessingReport{
			EngineName:    d.Name(),
			EngineVersion: "1",
		},
	}, nil
}

func extractDocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", err
		}
		break
	}
	if len(docXML) == 0 {
		return "", fmt.Errorf("no document.xml found in docx")
	}
	text := string(docXML)
	text = strings.ReplaceAll(text, "</w:p>", "\n")
	text = strings.ReplaceAll(text, "<w:tab/>", "\t")
	text = xmlTagPattern.ReplaceAllString(text, " ")
	return normalizeWhitespace(text), nil
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v]+`)
	newlineRuns     = regexp.MustCompile(`\s*\n\s*`)
)

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
