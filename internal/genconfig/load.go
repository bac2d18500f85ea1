package genconfig

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultProviderTimeoutSeconds = 45.0

var supportedKinds = map[string]struct{}{
	KindMock:             {},
	KindOpenAI:           {},
	KindOpenAICompatible: {},
	KindGemini:           {},
}

var supportedRoles = map[string]struct{}{
	RoleOrientation: {},
	RoleRewrite:     {},
	RoleFinal:       {},
	RoleGeneric:     {},
}

var stageIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type providersDoc struct {
	Providers map[string]providerDoc `yaml:"providers"`
}

type providerDoc struct {
	Kind           string            `yaml:"kind"`
	BaseURL        string            `yaml:"base_url"`
	APIKeyEnv      string            `yaml:"api_key_env"`
	Organization   string            `yaml:"organization"`
	DefaultHeaders map[string]string `yaml:"default_headers"`
	TimeoutSeconds *float64          `yaml:"timeout_seconds"`
}

type profilesDoc struct {
	Profiles map[string]profileDoc `yaml:"llm_profiles"`
}

type profileDoc struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   *int     `yaml:"max_tokens"`
}

type graphIndexDoc struct {
	DefaultGraphID string                   `yaml:"default_graph_id"`
	Graphs         map[string]graphIndexRef `yaml:"graphs"`
}

type graphIndexRef struct {
	File string `yaml:"file"`
}

type graphDoc struct {
	GraphID            string     `yaml:"graph_id"`
	Version            string     `yaml:"version"`
	Stages             []stageDoc `yaml:"stages"`
	OrientationStageID string     `yaml:"orientation_stage_id"`
	FinalStageID       string     `yaml:"final_stage_id"`
}

type stageDoc struct {
	ID             string `yaml:"id"`
	Role           string `yaml:"role"`
	PromptID       string `yaml:"prompt_id"`
	LLMProfile     string `yaml:"llm_profile"`
	ResponseFormat string `yaml:"response_format"`
	UpdateLatestCV *bool  `yaml:"update_latest_cv"`
}

// Load parses and cross-validates the three layered configuration documents
// into the executable runtime model.
func Load(providersPath, profilesPath, graphIndexPath string) (*RuntimeConfig, error) {
	providers, err := loadProviders(providersPath)
	if err != nil {
		return nil, err
	}
	profiles, err := loadProfiles(profilesPath)
	if err != nil {
		return nil, err
	}
	registry, err := loadGraphRegistry(graphIndexPath)
	if err != nil {
		return nil, err
	}

	for _, profile := range profiles {
		if _, ok := providers[profile.Provider]; !ok {
			return nil, configErrorf("llm profile %q references unknown provider %q", profile.ID, profile.Provider)
		}
	}
	for _, graph := range registry.Graphs {
		for _, stage := range graph.Stages {
			if _, ok := profiles[stage.LLMProfile]; !ok {
				return nil, configErrorf("graph %q stage %q references unknown llm_profile %q",
					graph.GraphID, stage.ID, stage.LLMProfile)
			}
		}
	}

	return &RuntimeConfig{Providers: providers, Profiles: profiles, Registry: registry}, nil
}

func loadProviders(path string) (map[string]*Provider, error) {
	var doc providersDoc
	if err := loadYAML(path, "providers config", &doc); err != nil {
		return nil, err
	}
	if len(doc.Providers) == 0 {
		return nil, configErrorf("providers config must include non-empty 'providers'")
	}
	providers := make(map[string]*Provider, len(doc.Providers))
	for id, raw := range doc.Providers {
		provider, err := parseProvider(id, raw)
		if err != nil {
			return nil, err
		}
		providers[id] = provider
	}
	return providers, nil
}

func parseProvider(id string, doc providerDoc) (*Provider, error) {
	kind := strings.TrimSpace(doc.Kind)
	if kind == "" {
		return nil, configErrorf("provider %q kind must be a non-empty string", id)
	}
	if _, ok := supportedKinds[kind]; !ok {
		return nil, configErrorf("provider %q kind %q is not supported", id, kind)
	}
	baseURL := strings.TrimSpace(doc.BaseURL)
	if kind == KindOpenAICompatible && baseURL == "" {
		return nil, configErrorf("provider %q with kind %q must define 'base_url'", id, kind)
	}
	timeout := defaultProviderTimeoutSeconds
	if doc.TimeoutSeconds != nil {
		timeout = *doc.TimeoutSeconds
	}
	return &Provider{
		ID:             id,
		Kind:           kind,
		BaseURL:        baseURL,
		APIKeyEnv:      strings.TrimSpace(doc.APIKeyEnv),
		Organization:   strings.TrimSpace(doc.Organization),
		DefaultHeaders: doc.DefaultHeaders,
		TimeoutSeconds: timeout,
	}, nil
}

func loadProfiles(path string) (map[string]*Profile, error) {
	var doc profilesDoc
	if err := loadYAML(path, "llm profiles config", &doc); err != nil {
		return nil, err
	}
	if len(doc.Profiles) == 0 {
		return nil, configErrorf("llm profiles config must include non-empty 'llm_profiles'")
	}
	profiles := make(map[string]*Profile, len(doc.Profiles))
	for id, raw := range doc.Profiles {
		provider := strings.TrimSpace(raw.Provider)
		if provider == "" {
			return nil, configErrorf("llm profile %q provider must be a non-empty string", id)
		}
		model := strings.TrimSpace(raw.Model)
		if model == "" {
			return nil, configErrorf("llm profile %q model must be a non-empty string", id)
		}
		temperature := 0.2
		if raw.Temperature != nil {
			temperature = *raw.Temperature
		}
		profiles[id] = &Profile{
			ID:          id,
			Provider:    provider,
			Model:       model,
			Temperature: temperature,
			MaxTokens:   raw.MaxTokens,
		}
	}
	return profiles, nil
}

func loadGraphRegistry(indexPath string) (*GraphRegistry, error) {
	var doc graphIndexDoc
	if err := loadYAML(indexPath, "graph index config", &doc); err != nil {
		return nil, err
	}
	defaultGraphID := strings.TrimSpace(doc.DefaultGraphID)
	if defaultGraphID == "" {
		return nil, configErrorf("default_graph_id must be a non-empty string")
	}
	if len(doc.Graphs) == 0 {
		return nil, configErrorf("graph index config must include non-empty 'graphs'")
	}

	graphs := make(map[string]*GraphDefinition, len(doc.Graphs))
	for graphID, ref := range doc.Graphs {
		file := strings.TrimSpace(ref.File)
		if file == "" {
			return nil, configErrorf("graph index %q file must be a non-empty string", graphID)
		}
		graphFile := file
		if !filepath.IsAbs(graphFile) {
			graphFile = filepath.Join(filepath.Dir(indexPath), graphFile)
		}
		graph, err := loadGraphDefinition(graphFile, graphID)
		if err != nil {
			return nil, err
		}
		graphs[graphID] = graph
	}
	if _, ok := graphs[defaultGraphID]; !ok {
		return nil, configErrorf("default_graph_id %q not found in graph index", defaultGraphID)
	}
	return &GraphRegistry{DefaultGraphID: defaultGraphID, Graphs: graphs}, nil
}

func loadGraphDefinition(path, expectedGraphID string) (*GraphDefinition, error) {
	var doc graphDoc
	if err := loadYAML(path, "graph definition "+expectedGraphID, &doc); err != nil {
		return nil, err
	}
	graphID := strings.TrimSpace(doc.GraphID)
	if graphID == "" {
		graphID = expectedGraphID
	}
	if graphID != expectedGraphID {
		return nil, configErrorf("graph file %q graph_id %q must match index key %q", path, graphID, expectedGraphID)
	}
	version := strings.TrimSpace(doc.Version)
	if version == "" {
		version = "1"
	}
	if len(doc.Stages) == 0 {
		return nil, configErrorf("graph %q must define non-empty 'stages' list", graphID)
	}

	stages := make([]Stage, 0, len(doc.Stages))
	seen := make(map[string]struct{}, len(doc.Stages))
	for _, raw := range doc.Stages {
		stage, err := parseStage(graphID, raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[stage.ID]; dup {
			return nil, configErrorf("graph %q has duplicate stage id %q", graphID, stage.ID)
		}
		seen[stage.ID] = struct{}{}
		stages = append(stages, *stage)
	}

	orientationStageID := strings.TrimSpace(doc.OrientationStageID)
	finalStageID := strings.TrimSpace(doc.FinalStageID)
	if orientationStageID != "" {
		if _, ok := seen[orientationStageID]; !ok {
			return nil, configErrorf("graph %q references unknown orientation_stage_id %q", graphID, orientationStageID)
		}
	}
	if finalStageID != "" {
		if _, ok := seen[finalStageID]; !ok {
			return nil, configErrorf("graph %q references unknown final_stage_id %q", graphID, finalStageID)
		}
	}

	return &GraphDefinition{
		GraphID:            graphID,
		Version:            version,
		Stages:             stages,
		OrientationStageID: orientationStageID,
		FinalStageID:       finalStageID,
	}, nil
}

func parseStage(graphID string, doc stageDoc) (*Stage, error) {
	stageID := strings.TrimSpace(doc.ID)
	if stageID == "" {
		return nil, configErrorf("graph %q stage id must be a non-empty string", graphID)
	}
	if !stageIDPattern.MatchString(stageID) {
		return nil, configErrorf("graph %q stage id %q must use only alphanumeric characters and underscores", graphID, stageID)
	}
	role := strings.TrimSpace(doc.Role)
	if role == "" {
		role = RoleGeneric
	}
	if _, ok := supportedRoles[role]; !ok {
		return nil, configErrorf("graph %q stage %q role %q is not supported", graphID, stageID, role)
	}
	promptID := strings.TrimSpace(doc.PromptID)
	if promptID == "" {
		return nil, configErrorf("graph %q stage %q prompt_id must be a non-empty string", graphID, stageID)
	}
	profile := strings.TrimSpace(doc.LLMProfile)
	if profile == "" {
		return nil, configErrorf("graph %q stage %q llm_profile must be a non-empty string", graphID, stageID)
	}
	responseFormat := strings.TrimSpace(doc.ResponseFormat)
	if responseFormat == "" {
		responseFormat = "text"
	}
	if responseFormat != "text" && responseFormat != "json" {
		return nil, configErrorf("graph %q stage %q response_format must be 'text' or 'json'", graphID, stageID)
	}
	// Rewriting stages feed forward into subsequent prompts by default,
	// orientation/generic stages do not.
	updateLatest := role == RoleRewrite || role == RoleFinal
	if doc.UpdateLatestCV != nil {
		updateLatest = *doc.UpdateLatestCV
	}
	return &Stage{
		ID:             stageID,
		Role:           role,
		PromptID:       promptID,
		LLMProfile:     profile,
		ResponseFormat: responseFormat,
		UpdateLatestCV: updateLatest,
	}, nil
}

func loadYAML(path, label string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return configErrorf("%s file is not readable: %s: %v", label, path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return configErrorf("%s must be a YAML object: %v", label, err)
	}
	return nil
}
