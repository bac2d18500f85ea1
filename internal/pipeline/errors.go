package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIngestorNotFound        = errors.New("no ingestor registered for media type")
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")
)

// IngestionFailedError reports that every compatible ingestor failed for a
// document, keeping the last engine error as the cause.
type IngestionFailedError struct {
	MediaType string
	Attempts  []string
	Retry     bool
	Cause     error
}

func (e *IngestionFailedError) Error() string {
	phase := "ingestion"
	if e.Retry {
		phase = "ingestion retry"
	}
	msg := fmt.Sprintf("document %s failed for media type %s with engines: %s",
		phase, e.MediaType, strings.Join(e.Attempts, ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *IngestionFailedError) Unwrap() error {
	return e.Cause
}

// LowQualityExtractionError reports a quality gate rejection that survived
// the bounded retry.
type LowQualityExtractionError struct {
	Flags []string
}

func (e *LowQualityExtractionError) Error() string {
	reason := strings.Join(e.Flags, ", ")
	if reason == "" {
		reason = "unknown_reason"
	}
	return "extraction quality check failed: " + reason
}

type RenderingFailedError struct {
	Format string
	Cause  error
}

func (e *RenderingFailedError) Error() string {
	return fmt.Sprintf("rendering failed for format %s: %v", e.Format, e.Cause)
}

func (e *RenderingFailedError) Unwrap() error {
	return e.Cause
}

type ArtifactPersistenceError struct {
	Format string
	Cause  error
}

func (e *ArtifactPersistenceError) Error() string {
	return fmt.Sprintf("failed to persist artifact %s: %v", e.Format, e.Cause)
}

func (e *ArtifactPersistenceError) Unwrap() error {
	return e.Cause
}
