package graph

import (
	"context"
	"encoding/json"
	"time"

	"github.com/esperluet/cv-smarter/internal/genconfig"
	"github.com/esperluet/cv-smarter/internal/llm"
	"github.com/esperluet/cv-smarter/internal/prompt"
	"github.com/esperluet/cv-smarter/internal/trace"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const compiledGraphCacheSize = 32

// compiledStage carries a stage with its profile and provider resolved once
// per graph version, so the per-run walk does no config lookups. Prompts are
// resolved per stage execution so edits to prompt files take effect without
// invalidating the cache.
type compiledStage struct {
	stage    *genconfig.Stage
	profile  *genconfig.Profile
	provider *genconfig.Provider
}

type compiledGraph struct {
	definition *genconfig.GraphDefinition
	stages     []compiledStage
}

// Executor runs a generation graph stage by stage, threading run state and
// emitting trace events for every stage transition.
type Executor struct {
	cfg      *genconfig.RuntimeConfig
	gateway  llm.Gateway
	prompts  prompt.Repository
	traces   trace.Store
	compiled *lru.Cache[string, *compiledGraph]
}

func NewExecutor(cfg *genconfig.RuntimeConfig, gateway llm.Gateway, prompts prompt.Repository, traces trace.Store) (*Executor, error) {
	cache, err := lru.New[string, *compiledGraph](compiledGraphCacheSize)
	if err != nil {
		return nil, err
	}
	return &Executor{
		cfg:      cfg,
		gateway:  gateway,
		prompts:  prompts,
		traces:   traces,
		compiled: cache,
	}, nil
}

func (e *Executor) compile(definition *genconfig.GraphDefinition) (*compiledGraph, error) {
	key := definition.GraphID + ":" + definition.Version
	if cached, ok := e.compiled.Get(key); ok {
		return cached, nil
	}

	compiled := &compiledGraph{definition: definition}
	for i := range definition.Stages {
		stage := &definition.Stages[i]
		profile, err := e.cfg.Profile(stage.LLMProfile)
		if err != nil {
			return nil, err
		}
		provider, err := e.cfg.Provider(profile.Provider)
		if err != nil {
			return nil, err
		}
		compiled.stages = append(compiled.stages, compiledStage{
			stage:    stage,
			profile:  profile,
			provider: provider,
		})
	}
	e.compiled.Add(key, compiled)
	return compiled, nil
}

// runState is the mutable state threaded through a run. latest_cv starts as
// the raw CV text and is replaced by stages flagged to update it. previous_cv
// always mirrors latest_cv at render time.
type runState struct {
	latestCV     string
	orientation  OrientationDecision
	stageOutputs map[string]string
}

func (s *runState) vars(cvText string, jobDescription string, definition *genconfig.GraphDefinition) map[string]string {
	orientationJSON, _ := json.Marshal(s.orientation)
	vars := map[string]string{
		"cv_text":               cvText,
		"job_description":       jobDescription,
		"latest_cv":             s.latestCV,
		"previous_cv":           s.latestCV,
		"orientation_json":      string(orientationJSON),
		"orientation_rationale": s.orientation.Rationale,
		"graph_id":              definition.GraphID,
		"graph_version":         definition.Version,
	}
	for stageID, output := range s.stageOutputs {
		vars["stage_"+stageID] = output
	}
	return vars
}

// Generate runs the selected graph over the CV text and job description. An
// empty graphID selects the configured default graph. Any stage failure
// aborts the whole run.
func (e *Executor) Generate(ctx context.Context, cvText string, jobDescription string, graphID string) (*Result, error) {
	definition, err := e.cfg.ResolveGraph(graphID)
	if err != nil {
		return nil, err
	}
	compiled, err := e.compile(definition)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	state := &runState{
		latestCV: cvText,
		orientation: OrientationDecision{
			ATSWeight:       0.34,
			RecruiterWeight: 0.33,
			TechnicalWeight: 0.33,
			Rationale:       "Default orientation before model decision.",
		},
		stageOutputs: make(map[string]string),
	}

	result := &Result{
		RunID:        runID,
		GraphID:      definition.GraphID,
		GraphVersion: definition.Version,
	}

	logutil.GetLogger(ctx).Info("start generation run",
		zap.String("run_id", runID),
		zap.String("graph_id", definition.GraphID),
		zap.String("graph_version", definition.Version),
		zap.Int("stage_count", len(compiled.stages)))

	for _, cs := range compiled.stages {
		stageTrace, output, err := e.runStage(ctx, runID, definition, cs, state, cvText, jobDescription)
		if stageTrace != nil {
			result.StageTraces = append(result.StageTraces, *stageTrace)
		}
		if err != nil {
			return nil, err
		}

		state.stageOutputs[cs.stage.ID] = output
		if cs.stage.Role == genconfig.RoleOrientation {
			state.orientation = parseOrientation(output)
		}
		if cs.stage.UpdateLatestCV {
			state.latestCV = output
		}
	}

	result.Orientation = state.orientation
	if output, ok := state.stageOutputs[definition.FinalStage()]; ok {
		result.FinalCV = output
	} else {
		result.FinalCV = state.latestCV
	}

	logutil.GetLogger(ctx).Info("generation run complete",
		zap.String("run_id", runID),
		zap.Int("final_cv_chars", len(result.FinalCV)))
	return result, nil
}

func (e *Executor) runStage(ctx context.Context, runID string, definition *genconfig.GraphDefinition,
	cs compiledStage, state *runState, cvText string, jobDescription string) (*StageTrace, string, error) {

	tpl, err := e.prompts.Get(cs.stage.PromptID)
	if err != nil {
		return nil, "", &PromptResolutionError{PromptID: cs.stage.PromptID, Cause: err}
	}
	rendered, missing := renderTemplate(tpl.Content, state.vars(cvText, jobDescription, definition))
	if missing != "" {
		return nil, "", &PromptResolutionError{PromptID: cs.stage.PromptID, Missing: missing}
	}

	startedAt := time.Now().UTC()
	e.traces.Record(ctx, trace.Event{
		RunID:     runID,
		Stage:     cs.stage.ID,
		Event:     trace.EventStageStarted,
		Timestamp: startedAt,
		Payload: map[string]interface{}{
			"graph_id":       definition.GraphID,
			"graph_version":  definition.Version,
			"stage_role":     cs.stage.Role,
			"prompt_id":      cs.stage.PromptID,
			"prompt_version": tpl.Version,
			"prompt_hash":    tpl.SHA256,
			"llm_profile":    cs.profile.ID,
			"llm_provider":   cs.provider.ID,
			"llm_model":      cs.profile.Model,
		},
	})

	output, err := e.gateway.Generate(ctx, llm.Request{
		Stage:          cs.stage.ID,
		Provider:       cs.provider.ID,
		Model:          cs.profile.Model,
		Prompt:         rendered,
		Temperature:    cs.profile.Temperature,
		MaxTokens:      cs.profile.MaxTokens,
		TimeoutSeconds: cs.provider.TimeoutSeconds,
	})
	endedAt := time.Now().UTC()
	if err != nil {
		e.traces.Record(ctx, trace.Event{
			RunID:     runID,
			Stage:     cs.stage.ID,
			Event:     trace.EventStageFailed,
			Timestamp: endedAt,
			Payload: map[string]interface{}{
				"graph_id":      definition.GraphID,
				"graph_version": definition.Version,
				"error":         err.Error(),
				"duration_ms":   endedAt.Sub(startedAt).Milliseconds(),
			},
		})
		logutil.GetLogger(ctx).Error("generation stage failed",
			zap.String("run_id", runID),
			zap.String("stage", cs.stage.ID),
			zap.Error(err))
		return nil, "", &ExecutionError{GraphID: definition.GraphID, Stage: cs.stage.ID, Cause: err}
	}

	e.traces.Record(ctx, trace.Event{
		RunID:     runID,
		Stage:     cs.stage.ID,
		Event:     trace.EventStageCompleted,
		Timestamp: endedAt,
		Payload: map[string]interface{}{
			"duration_ms":  endedAt.Sub(startedAt).Milliseconds(),
			"output_chars": len(output),
		},
	})

	stageTrace := &StageTrace{
		Stage:       cs.stage.ID,
		PromptID:    cs.stage.PromptID,
		PromptHash:  tpl.SHA256,
		LLMProfile:  cs.profile.ID,
		LLMProvider: cs.provider.ID,
		LLMModel:    cs.profile.Model,
		Status:      "success",
		StartedAt:   startedAt,
		EndedAt:     endedAt,
		DurationMS:  endedAt.Sub(startedAt).Milliseconds(),
	}
	return stageTrace, output, nil
}
