package graph

import (
	"fmt"
	"time"
)

// OrientationDecision is the relative weighting inferred for a generation
// run, used to bias subsequent rewrite stages. Weights always sum to 1.
type OrientationDecision struct {
	ATSWeight       float64 `json:"ats_weight"`
	RecruiterWeight float64 `json:"recruiter_weight"`
	TechnicalWeight float64 `json:"technical_weight"`
	Rationale       string  `json:"rationale"`
}

// StageTrace records one executed stage, in execution order.
type StageTrace struct {
	Stage       string    `json:"stage"`
	PromptID    string    `json:"prompt_id"`
	PromptHash  string    `json:"prompt_hash"`
	LLMProfile  string    `json:"llm_profile"`
	LLMProvider string    `json:"llm_provider"`
	LLMModel    string    `json:"llm_model"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// Result is the outcome of one full generation run.
type Result struct {
	RunID        string
	GraphID      string
	GraphVersion string
	FinalCV      string
	Orientation  OrientationDecision
	StageTraces  []StageTrace
}

// ExecutionError aborts the whole run; no partial results reach the caller.
type ExecutionError struct {
	GraphID string
	Stage   string
	Cause   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("cv generation failed at graph %q stage %q: %v", e.GraphID, e.Stage, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// PromptResolutionError covers both a missing prompt id and a template
// referencing a variable that is not defined for the stage.
type PromptResolutionError struct {
	PromptID string
	Missing  string
	Cause    error
}

func (e *PromptResolutionError) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("prompt %q references undefined variable %q", e.PromptID, e.Missing)
	}
	return fmt.Sprintf("prompt resolution failed for %q: %v", e.PromptID, e.Cause)
}

func (e *PromptResolutionError) Unwrap() error {
	return e.Cause
}
