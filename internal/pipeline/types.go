package pipeline

// InputDocument identifies a stored byte stream pending ingestion.
type InputDocument struct {
	SourcePath   string
	OriginalName string
	MediaType    string
}

// IngestionPolicy is produced by the policy strategy and consumed by
// ingestors. Values are never mutated, only replaced.
type IngestionPolicy struct {
	OCREnabled     bool
	DecisionReason string
}

// CanonicalDocument is the single normalized representation that renderers,
// quality checks and downstream consumers operate on.
type CanonicalDocument struct {
	SchemaVersion   string
	SourceMediaType string
	Text            string
	Metadata        map[string]string
	Extensions      map[string]interface{}
}

type ProcessingReport struct {
	EngineName     string
	EngineVersion  string
	Warnings       []string
	QualityScore   *float64
	QualityFlags   []string
	EngineAttempts []string
}

type IngestionResult struct {
	CanonicalDocument CanonicalDocument
	Report            ProcessingReport
}

type QualityAssessment struct {
	Accepted bool
	Score    float64
	Flags    []string
}

type RenderedArtifact struct {
	Format      string `json:"format"`
	MediaType   string `json:"media_type"`
	StoragePath string `json:"storage_path"`
}

type ProcessingResult struct {
	CanonicalDocument CanonicalDocument
	Report            ProcessingReport
	Artifacts         []RenderedArtifact
}
