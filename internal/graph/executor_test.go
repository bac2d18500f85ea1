package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esperluet/cv-smarter/internal/genconfig"
	"github.com/esperluet/cv-smarter/internal/llm"
	"github.com/esperluet/cv-smarter/internal/prompt"
	"github.com/esperluet/cv-smarter/internal/trace"
)

type fakePromptRepo struct {
	prompts map[string]string
}

func (f *fakePromptRepo) Get(promptID string) (*prompt.Template, error) {
	content, ok := f.prompts[promptID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", prompt.ErrNotFound, promptID)
	}
	return &prompt.Template{PromptID: promptID, Content: content, Version: "v1", SHA256: "hash-" + promptID}, nil
}

type fakeGateway struct {
	responses map[string]string
	failStage string
	requests  []llm.Request
}

func (f *fakeGateway) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if req.Stage == f.failStage {
		return "", errors.New("backend unavailable")
	}
	if resp, ok := f.responses[req.Stage]; ok {
		return resp, nil
	}
	return "output of " + req.Stage, nil
}

type recordingStore struct {
	events []trace.Event
}

func (r *recordingStore) Record(ctx context.Context, event trace.Event) {
	r.events = append(r.events, event)
}

func testRuntimeConfig(t *testing.T) *genconfig.RuntimeConfig {
	t.Helper()
	provider := &genconfig.Provider{ID: "mock_local", Kind: genconfig.KindMock, TimeoutSeconds: 45}
	profile := &genconfig.Profile{ID: "drafting", Provider: "mock_local", Model: "mock-small", Temperature: 0.2}
	definition := &genconfig.GraphDefinition{
		GraphID:            "standard",
		Version:            "1",
		OrientationStageID: "determine_orientation",
		FinalStageID:       "final_render",
		Stages: []genconfig.Stage{
			{ID: "determine_orientation", Role: genconfig.RoleOrientation, PromptID: "determine_orientation", LLMProfile: "drafting", ResponseFormat: "json"},
			{ID: "ats_pass", Role: genconfig.RoleRewrite, PromptID: "ats_pass", LLMProfile: "drafting", UpdateLatestCV: true},
			{ID: "recruiter_pass", Role: genconfig.RoleRewrite, PromptID: "recruiter_pass", LLMProfile: "drafting", UpdateLatestCV: true},
			{ID: "technical_pass", Role: genconfig.RoleRewrite, PromptID: "technical_pass", LLMProfile: "drafting", UpdateLatestCV: true},
			{ID: "final_render", Role: genconfig.RoleFinal, PromptID: "final_render", LLMProfile: "drafting", UpdateLatestCV: true},
		},
	}
	return &genconfig.RuntimeConfig{
		Providers: map[string]*genconfig.Provider{"mock_local": provider},
		Profiles:  map[string]*genconfig.Profile{"drafting": profile},
		Registry: &genconfig.GraphRegistry{
			DefaultGraphID: "standard",
			Graphs:         map[string]*genconfig.GraphDefinition{"standard": definition},
		},
	}
}

func testPrompts() *fakePromptRepo {
	return &fakePromptRepo{prompts: map[string]string{
		"determine_orientation": "Decide for: {cv_text} vs {job_description}",
		"ats_pass":              "ATS rewrite of {latest_cv} with {orientation_json}",
		"recruiter_pass":        "Recruiter rewrite of {latest_cv}",
		"technical_pass":        "Technical rewrite of {latest_cv}",
		"final_render":          "Render {latest_cv}",
	}}
}

func TestGenerate_RunsAllStagesInOrder(t *testing.T) {
	gateway := &fakeGateway{responses: map[string]string{
		"determine_orientation": `{"ats_weight": 2, "recruiter_weight": 1, "technical_weight": 1, "rationale": "ats posting"}`,
		"final_render":          "# Final CV",
	}}
	store := &recordingStore{}
	executor, err := NewExecutor(testRuntimeConfig(t), gateway, testPrompts(), store)
	require.NoError(t, err)

	result, err := executor.Generate(context.Background(), "raw cv text", "job description", "")
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)
	require.Equal(t, "standard", result.GraphID)
	require.Equal(t, "1", result.GraphVersion)
	require.Equal(t, "# Final CV", result.FinalCV)

	require.Len(t, result.StageTraces, 5)
	order := []string{"determine_orientation", "ats_pass", "recruiter_pass", "technical_pass", "final_render"}
	for i, stage := range order {
		require.Equal(t, stage, result.StageTraces[i].Stage)
		require.Equal(t, "success", result.StageTraces[i].Status)
		require.Equal(t, "hash-"+stage, result.StageTraces[i].PromptHash)
	}

	require.Equal(t, 0.5, result.Orientation.ATSWeight)
	require.Equal(t, 0.25, result.Orientation.RecruiterWeight)
	require.Equal(t, "ats posting", result.Orientation.Rationale)

	// one started and one completed event per stage
	require.Len(t, store.events, 10)
	for i, stage := range order {
		require.Equal(t, stage, store.events[2*i].Stage)
		require.Equal(t, trace.EventStageStarted, store.events[2*i].Event)
		require.Equal(t, stage, store.events[2*i+1].Stage)
		require.Equal(t, trace.EventStageCompleted, store.events[2*i+1].Event)
		require.Equal(t, result.RunID, store.events[2*i].RunID)
	}
	started := store.events[0]
	require.Equal(t, "standard", started.Payload["graph_id"])
	require.Equal(t, "orientation", started.Payload["stage_role"])
	require.Equal(t, "mock_local", started.Payload["llm_provider"])
}

func TestGenerate_ThreadsLatestCVThroughRewrites(t *testing.T) {
	gateway := &fakeGateway{responses: map[string]string{
		"ats_pass": "ats rewritten cv",
	}}
	executor, err := NewExecutor(testRuntimeConfig(t), gateway, testPrompts(), &recordingStore{})
	require.NoError(t, err)

	_, err = executor.Generate(context.Background(), "raw cv text", "job description", "standard")
	require.NoError(t, err)

	require.Len(t, gateway.requests, 5)
	require.Contains(t, gateway.requests[1].Prompt, "ATS rewrite of raw cv text")
	require.Contains(t, gateway.requests[2].Prompt, "Recruiter rewrite of ats rewritten cv")
}

func TestGenerate_StageFailureAbortsRun(t *testing.T) {
	gateway := &fakeGateway{failStage: "recruiter_pass"}
	store := &recordingStore{}
	executor, err := NewExecutor(testRuntimeConfig(t), gateway, testPrompts(), store)
	require.NoError(t, err)

	_, err = executor.Generate(context.Background(), "raw cv text", "job description", "")
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "recruiter_pass", execErr.Stage)

	// no stages ran past the failure
	require.Len(t, gateway.requests, 3)
	last := store.events[len(store.events)-1]
	require.Equal(t, trace.EventStageFailed, last.Event)
	require.Equal(t, "recruiter_pass", last.Stage)
	require.Equal(t, "standard", last.Payload["graph_id"])
	require.Equal(t, "1", last.Payload["graph_version"])
}

func TestGenerate_MissingTemplateVariable(t *testing.T) {
	prompts := testPrompts()
	prompts.prompts["ats_pass"] = "Rewrite {latest_cv} referencing {nonexistent_var}"
	executor, err := NewExecutor(testRuntimeConfig(t), &fakeGateway{}, prompts, &recordingStore{})
	require.NoError(t, err)

	_, err = executor.Generate(context.Background(), "cv", "jd", "")
	var promptErr *PromptResolutionError
	require.ErrorAs(t, err, &promptErr)
	require.Equal(t, "nonexistent_var", promptErr.Missing)
}

func TestGenerate_MissingPromptFailsAtItsStage(t *testing.T) {
	prompts := testPrompts()
	delete(prompts.prompts, "technical_pass")
	gateway := &fakeGateway{}
	executor, err := NewExecutor(testRuntimeConfig(t), gateway, prompts, &recordingStore{})
	require.NoError(t, err)

	_, err = executor.Generate(context.Background(), "cv", "jd", "")
	var promptErr *PromptResolutionError
	require.ErrorAs(t, err, &promptErr)
	require.ErrorIs(t, err, prompt.ErrNotFound)
	// stages before the broken one already ran; the broken one never
	// reached the model
	require.Len(t, gateway.requests, 3)
}

func TestGenerate_PreviousCVMirrorsLatest(t *testing.T) {
	prompts := testPrompts()
	prompts.prompts["determine_orientation"] = "orientation over {previous_cv}"
	prompts.prompts["recruiter_pass"] = "Recruiter rewrite of {previous_cv}"
	gateway := &fakeGateway{responses: map[string]string{
		"ats_pass": "ats rewritten cv",
	}}
	executor, err := NewExecutor(testRuntimeConfig(t), gateway, prompts, &recordingStore{})
	require.NoError(t, err)

	_, err = executor.Generate(context.Background(), "raw cv text", "job description", "")
	require.NoError(t, err)
	require.Equal(t, "orientation over raw cv text", gateway.requests[0].Prompt)
	require.Equal(t, "Recruiter rewrite of ats rewritten cv", gateway.requests[2].Prompt)
}

func TestGenerate_PromptEditsApplyToCachedGraph(t *testing.T) {
	prompts := testPrompts()
	gateway := &fakeGateway{}
	executor, err := NewExecutor(testRuntimeConfig(t), gateway, prompts, &recordingStore{})
	require.NoError(t, err)

	_, err = executor.Generate(context.Background(), "cv", "jd", "")
	require.NoError(t, err)
	require.Contains(t, gateway.requests[4].Prompt, "Render")

	prompts.prompts["final_render"] = "Typeset {latest_cv}"
	_, err = executor.Generate(context.Background(), "cv", "jd", "")
	require.NoError(t, err)
	require.Contains(t, gateway.requests[9].Prompt, "Typeset")
}

func TestGenerate_UnknownGraphID(t *testing.T) {
	executor, err := NewExecutor(testRuntimeConfig(t), &fakeGateway{}, testPrompts(), &recordingStore{})
	require.NoError(t, err)
	_, err = executor.Generate(context.Background(), "cv", "jd", "missing")
	var cfgErr *genconfig.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestGenerate_StageOutputAvailableToLaterPrompts(t *testing.T) {
	prompts := testPrompts()
	prompts.prompts["final_render"] = "Render {latest_cv} using {stage_ats_pass}"
	gateway := &fakeGateway{responses: map[string]string{"ats_pass": "ats output"}}
	executor, err := NewExecutor(testRuntimeConfig(t), gateway, prompts, &recordingStore{})
	require.NoError(t, err)

	_, err = executor.Generate(context.Background(), "cv", "jd", "")
	require.NoError(t, err)
	require.Contains(t, gateway.requests[4].Prompt, "using ats output")
}
