package pipeline

import (
	"context"
	"fmt"
)

// Ingestor turns a stored document into a canonical representation. An error
// means "this engine failed, try the next one".
type Ingestor interface {
	Name() string
	Supports(mediaType string) bool
	Ingest(ctx context.Context, doc InputDocument, policy IngestionPolicy) (*IngestionResult, error)
}

// Renderer converts a canonical document into one output format.
type Renderer interface {
	OutputFormat() string
	MediaType() string
	Render(doc CanonicalDocument) (string, error)
}

// ArtifactStore persists a rendered output.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, doc InputDocument, outputFormat, mediaType, content string) (*RenderedArtifact, error)
}

// Pipeline coordinates ingestor selection, OCR policy application, the
// bounded quality retry, rendering and artifact persistence. The policy
// strategy is the single decision point for whether a retry happens; the
// pipeline itself stays policy-agnostic.
type Pipeline struct {
	ingestors []Ingestor
	renderers map[string]Renderer
	artifacts ArtifactStore
	validator QualityValidator
	policy    *PolicyStrategy
}

func New(ingestors []Ingestor, renderers []Renderer, artifacts ArtifactStore, validator QualityValidator, policy *PolicyStrategy) *Pipeline {
	byFormat := make(map[string]Renderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.OutputFormat()] = r
	}
	return &Pipeline{
		ingestors: ingestors,
		renderers: byFormat,
		artifacts: artifacts,
		validator: validator,
		policy:    policy,
	}
}

func (p *Pipeline) Execute(ctx context.Context, doc InputDocument, outputFormats []string) (*ProcessingResult, error) {
	compatible := p.resolveIngestors(doc.MediaType)
	if len(compatible) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIngestorNotFound, doc.MediaType)
	}

	policy := p.initialPolicy(doc)
	result, lastErr, attempts := p.ingestWithPolicy(ctx, doc, compatible, policy)
	if result == nil {
		return nil, &IngestionFailedError{MediaType: doc.MediaType, Attempts: attempts, Cause: lastErr}
	}

	report := result.Report
	finalPolicy := policy
	if p.validator != nil {
		quality := p.validator.Assess(result.CanonicalDocument)
		retryPolicy := p.retryPolicy(doc, quality.Flags, result.CanonicalDocument.Text, policy)
		if !quality.Accepted && retryPolicy != nil {
			retryResult, retryErr, retryAttempts := p.ingestWithPolicy(ctx, doc, compatible, *retryPolicy)
			attempts = append(attempts, retryAttempts...)
			if retryResult == nil {
				return nil, &IngestionFailedError{MediaType: doc.MediaType, Attempts: retryAttempts, Retry: true, Cause: retryErr}
			}
			result = retryResult
			report = retryResult.Report
			finalPolicy = *retryPolicy
			quality = p.validator.Assess(result.CanonicalDocument)
		}
		score := quality.Score
		report.QualityScore = &score
		report.QualityFlags = quality.Flags
		report.EngineAttempts = attempts
		if !quality.Accepted {
			return nil, &LowQualityExtractionError{Flags: quality.Flags}
		}
	} else {
		report.EngineAttempts = attempts
	}
	report.Warnings = append(report.Warnings,
		fmt.Sprintf("ocr_policy: enabled=%t, reason=%s", finalPolicy.OCREnabled, finalPolicy.DecisionReason))

	artifacts := make([]RenderedArtifact, 0, len(outputFormats))
	for _, format := range outputFormats {
		renderer, ok := p.renderers[format]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOutputFormat, format)
		}
		content, err := renderer.Render(result.CanonicalDocument)
		if err != nil {
			return nil, &RenderingFailedError{Format: format, Cause: err}
		}
		artifact, err := p.artifacts.SaveArtifact(ctx, doc, format, renderer.MediaType(), content)
		if err != nil {
			return nil, &ArtifactPersistenceError{Format: format, Cause: err}
		}
		artifacts = append(artifacts, *artifact)
	}

	return &ProcessingResult{
		CanonicalDocument: result.CanonicalDocument,
		Report:            report,
		Artifacts:         artifacts,
	}, nil
}

func (p *Pipeline) resolveIngestors(mediaType string) []Ingestor {
	var compatible []Ingestor
	for _, ing := range p.ingestors {
		if ing.Supports(mediaType) {
			compatible = append(compatible, ing)
		}
	}
	return compatible
}

func (p *Pipeline) initialPolicy(doc InputDocument) IngestionPolicy {
	if p.policy == nil {
		return IngestionPolicy{OCREnabled: false, DecisionReason: "no_strategy"}
	}
	return p.policy.InitialPolicy(doc)
}

func (p *Pipeline) retryPolicy(doc InputDocument, flags []string, text string, previous IngestionPolicy) *IngestionPolicy {
	if p.policy == nil {
		return nil
	}
	return p.policy.RetryPolicy(doc, RetryContext{
		QualityFlags:   flags,
		ExtractedText:  text,
		PreviousPolicy: previous,
	})
}

// ingestWithPolicy folds over the compatible ingestors in registration order,
// stopping at the first success and tracking the last error. One attempt
// entry is recorded per engine regardless of outcome.
func (p *Pipeline) ingestWithPolicy(ctx context.Context, doc InputDocument, ingestors []Ingestor, policy IngestionPolicy) (*IngestionResult, error, []string) {
	var result *IngestionResult
	var lastErr error
	attempts := make([]string, 0, len(ingestors))
	for _, ing := range ingestors {
		ocrState := "off"
		if policy.OCREnabled {
			ocrState = "on"
		}
		attempts = append(attempts, fmt.Sprintf("%s(ocr=%s)", ing.Name(), ocrState))
		res, err := ing.Ingest(ctx, doc, policy)
		if err != nil {
			lastErr = err
			continue
		}
		result = res
		break
	}
	return result, lastErr, attempts
}
