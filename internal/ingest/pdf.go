package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/esperluet/cv-smarter/internal/pipeline"
)

const pdfEngineVersion = "ledongthuc/pdf"

// PDFIngestor extracts embedded text from PDF files. When the policy enables
// OCR and an external OCR command is configured, the document is passed
// through that command first so scanned pages gain a text layer. Image
// uploads are accepted too since the OCR command converts them into
// searchable PDFs.
type PDFIngestor struct {
	supported map[string]struct{}
	// ocrCommand is an argv template; occurrences of {input} and {output}
	// are replaced with the source path and a temp output path.
	ocrCommand []string
}

func NewPDFIngestor(ocrCommand []string) *PDFIngestor {
	return &PDFIngestor{
		supported: supportedSet([]string{
			"application/pdf",
			"image/png",
			"image/jpeg",
			"image/webp",
			"image/tiff",
		}),
		ocrCommand: ocrCommand,
	}
}

func (p *PDFIngestor) Name() string {
	return "pdftext"
}

func (p *PDFIngestor) Supports(mediaType string) bool {
	_, ok := p.supported[mediaType]
	return ok
}

func (p *PDFIngestor) Ingest(ctx context.Context, doc pipeline.InputDocument, policy pipeline.IngestionPolicy) (*pipeline.IngestionResult, error) {
	sourcePath := doc.SourcePath
	var warnings []string

	if policy.OCREnabled {
		if len(p.ocrCommand) == 0 {
			warnings = append(warnings, "ocr requested but no ocr command configured, using plain extraction")
		} else {
			ocrPath, err := p.runOCR(ctx, sourcePath)
			if err != nil {
				return nil, fmt.Errorf("ocr preprocessing: %w", err)
			}
			defer func() { _ = os.Remove(ocrPath) }()
			sourcePath = ocrPath
		}
	}

	text, err := extractPDFText(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("pdf extraction: %w", err)
	}

	return &pipeline.IngestionResult{
		CanonicalDocument: canonical(doc, text),
		Report: pipeline.ProcessingReport{
			EngineName:    p.Name(),
			EngineVersion: pdfEngineVersion,
			Warnings:      warnings,
		},
	}, nil
}

func (p *PDFIngestor) runOCR(ctx context.Context, inputPath string) (string, error) {
	out, err := os.CreateTemp("", "ocr_*"+filepath.Ext(inputPath))
	if err != nil {
		return "", err
	}
	outputPath := out.Name()
	_ = out.Close()

	argv := make([]string, 0, len(p.ocrCommand))
	for _, arg := range p.ocrCommand {
		arg = strings.ReplaceAll(arg, "{input}", inputPath)
		arg = strings.ReplaceAll(arg, "{output}", outputPath)
		argv = append(argv, arg)
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return outputPath, nil
}

func extractPDFText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rs, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return normalizeWhitespace(buf.String()), nil
}
