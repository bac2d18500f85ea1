package genconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validProviders = `
providers:
  mock_local:
    kind: mock
  remote:
    kind: openai_compatible
    base_url: http://127.0.0.1:8000/v1
    api_key_env: REMOTE_KEY
    timeout_seconds: 30
`

const validProfiles = `
llm_profiles:
  drafting:
    provider: mock_local
    model: mock-small
    temperature: 0.3
  rewrite:
    provider: remote
    model: big-model
    max_tokens: 2048
`

const validGraph = `
graph_id: standard
version: "2"
orientation_stage_id: determine_orientation
final_stage_id: final_render
stages:
  - id: determine_orientation
    role: orientation
    prompt_id: determine_orientation
    llm_profile: drafting
    response_format: json
  - id: ats_pass
    role: rewrite
    prompt_id: ats_pass
    llm_profile: rewrite
  - id: final_render
    role: final
    prompt_id: final_render
    llm_profile: rewrite
`

func writeValidConfig(t *testing.T) (string, string, string) {
	dir := t.TempDir()
	providers := writeFile(t, dir, "providers.yaml", validProviders)
	profiles := writeFile(t, dir, "profiles.yaml", validProfiles)
	writeFile(t, dir, "standard.yaml", validGraph)
	index := writeFile(t, dir, "graphs.yaml", `
default_graph_id: standard
graphs:
  standard:
    file: standard.yaml
`)
	return providers, profiles, index
}

func TestLoad_ValidConfig(t *testing.T) {
	providers, profiles, index := writeValidConfig(t)
	cfg, err := Load(providers, profiles, index)
	require.NoError(t, err)

	remote, err := cfg.Provider("remote")
	require.NoError(t, err)
	require.Equal(t, KindOpenAICompatible, remote.Kind)
	require.Equal(t, 30.0, remote.TimeoutSeconds)

	mock, err := cfg.Provider("mock_local")
	require.NoError(t, err)
	require.Equal(t, defaultProviderTimeoutSeconds, mock.TimeoutSeconds)

	drafting, err := cfg.Profile("drafting")
	require.NoError(t, err)
	require.Equal(t, 0.3, drafting.Temperature)
	rewrite, err := cfg.Profile("rewrite")
	require.NoError(t, err)
	require.Equal(t, 0.2, rewrite.Temperature)
	require.NotNil(t, rewrite.MaxTokens)
	require.Equal(t, 2048, *rewrite.MaxTokens)

	graph, err := cfg.ResolveGraph("")
	require.NoError(t, err)
	require.Equal(t, "standard", graph.GraphID)
	require.Equal(t, "2", graph.Version)
	require.Len(t, graph.Stages, 3)
	require.Equal(t, "determine_orientation", graph.Stages[0].ID)
	require.Equal(t, "final_render", graph.FinalStage())

	// update_latest_cv defaults by role
	require.False(t, graph.Stages[0].UpdateLatestCV)
	require.True(t, graph.Stages[1].UpdateLatestCV)
	require.True(t, graph.Stages[2].UpdateLatestCV)
}

func TestLoad_ProfileReferencesUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	providers := writeFile(t, dir, "providers.yaml", validProviders)
	profiles := writeFile(t, dir, "profiles.yaml", `
llm_profiles:
  drafting:
    provider: does_not_exist
    model: m
`)
	writeFile(t, dir, "standard.yaml", validGraph)
	index := writeFile(t, dir, "graphs.yaml", "default_graph_id: standard\ngraphs:\n  standard:\n    file: standard.yaml\n")

	_, err := Load(providers, profiles, index)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Reason, "unknown provider")
}

func TestLoad_StageReferencesUnknownProfile(t *testing.T) {
	dir := t.TempDir()
	providers := writeFile(t, dir, "providers.yaml", validProviders)
	profiles := writeFile(t, dir, "profiles.yaml", validProfiles)
	writeFile(t, dir, "standard.yaml", `
stages:
  - id: only_stage
    prompt_id: p
    llm_profile: missing_profile
`)
	index := writeFile(t, dir, "graphs.yaml", "default_graph_id: standard\ngraphs:\n  standard:\n    file: standard.yaml\n")

	_, err := Load(providers, profiles, index)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Reason, "unknown llm_profile")
}

func TestLoad_RejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	providers := writeFile(t, dir, "providers.yaml", "providers:\n  weird:\n    kind: telepathy\n")
	profiles := writeFile(t, dir, "profiles.yaml", validProfiles)
	index := writeFile(t, dir, "graphs.yaml", "default_graph_id: standard\ngraphs:\n  standard:\n    file: standard.yaml\n")

	_, err := Load(providers, profiles, index)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Reason, "not supported")
}

func TestLoad_OpenAICompatibleRequiresBaseURL(t *testing.T) {
	dir := t.TempDir()
	providers := writeFile(t, dir, "providers.yaml", "providers:\n  remote:\n    kind: openai_compatible\n")
	profiles := writeFile(t, dir, "profiles.yaml", validProfiles)
	index := writeFile(t, dir, "graphs.yaml", "default_graph_id: standard\ngraphs:\n  standard:\n    file: standard.yaml\n")

	_, err := Load(providers, profiles, index)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Reason, "base_url")
}

func TestLoad_GraphIDMustMatchIndexKey(t *testing.T) {
	dir := t.TempDir()
	providers := writeFile(t, dir, "providers.yaml", validProviders)
	profiles := writeFile(t, dir, "profiles.yaml", validProfiles)
	writeFile(t, dir, "standard.yaml", `
graph_id: something_else
stages:
  - id: s1
    prompt_id: p
    llm_profile: drafting
`)
	index := writeFile(t, dir, "graphs.yaml", "default_graph_id: standard\ngraphs:\n  standard:\n    file: standard.yaml\n")

	_, err := Load(providers, profiles, index)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Reason, "must match index key")
}

func TestLoad_DuplicateStageIDRejected(t *testing.T) {
	dir := t.TempDir()
	providers := writeFile(t, dir, "providers.yaml", validProviders)
	profiles := writeFile(t, dir, "profiles.yaml", validProfiles)
	writeFile(t, dir, "standard.yaml", `
stages:
  - id: dup
    prompt_id: p
    llm_profile: drafting
  - id: dup
    prompt_id: p
    llm_profile: drafting
`)
	index := writeFile(t, dir, "graphs.yaml", "default_graph_id: standard\ngraphs:\n  standard:\n    file: standard.yaml\n")

	_, err := Load(providers, profiles, index)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Reason, "duplicate stage id")
}

func TestLoad_DefaultGraphMustExist(t *testing.T) {
	dir := t.TempDir()
	providers := writeFile(t, dir, "providers.yaml", validProviders)
	profiles := writeFile(t, dir, "profiles.yaml", validProfiles)
	writeFile(t, dir, "standard.yaml", validGraph)
	index := writeFile(t, dir, "graphs.yaml", "default_graph_id: nope\ngraphs:\n  standard:\n    file: standard.yaml\n")

	_, err := Load(providers, profiles, index)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Reason, "default_graph_id")
}

func TestLoad_UnknownGraphIDAtResolve(t *testing.T) {
	providers, profiles, index := writeValidConfig(t)
	cfg, err := Load(providers, profiles, index)
	require.NoError(t, err)
	_, err = cfg.ResolveGraph("missing")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
