package genconfig

import "fmt"

// Provider kinds form a closed set: only vetted transports get wired to
// secrets, unknown kinds are rejected at load time.
const (
	KindMock             = "mock"
	KindOpenAI           = "openai"
	KindOpenAICompatible = "openai_compatible"
	KindGemini           = "gemini"
)

const (
	RoleOrientation = "orientation"
	RoleRewrite     = "rewrite"
	RoleFinal       = "final"
	RoleGeneric     = "generic"
)

// ConfigError marks any structural or referential defect in the generation
// runtime configuration. It is fatal at startup.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

type Provider struct {
	ID             string
	Kind           string
	BaseURL        string
	APIKeyEnv      string
	Organization   string
	DefaultHeaders map[string]string
	TimeoutSeconds float64
}

type Profile struct {
	ID          string
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   *int
}

type Stage struct {
	ID             string
	Role           string
	PromptID       string
	LLMProfile     string
	ResponseFormat string
	UpdateLatestCV bool
}

type GraphDefinition struct {
	GraphID            string
	Version            string
	Stages             []Stage
	OrientationStageID string
	FinalStageID       string
}

func (g *GraphDefinition) Stage(stageID string) (*Stage, error) {
	for i := range g.Stages {
		if g.Stages[i].ID == stageID {
			return &g.Stages[i], nil
		}
	}
	return nil, configErrorf("graph %q missing stage %q", g.GraphID, stageID)
}

// FinalStage is the designated final stage id, or the last declared stage.
func (g *GraphDefinition) FinalStage() string {
	if g.FinalStageID != "" {
		return g.FinalStageID
	}
	return g.Stages[len(g.Stages)-1].ID
}

type GraphRegistry struct {
	DefaultGraphID string
	Graphs         map[string]*GraphDefinition
}

func (r *GraphRegistry) Resolve(graphID string) (*GraphDefinition, error) {
	selected := graphID
	if selected == "" {
		selected = r.DefaultGraphID
	}
	graph, ok := r.Graphs[selected]
	if !ok {
		return nil, configErrorf("unknown graph id: %s", selected)
	}
	return graph, nil
}

// RuntimeConfig is the fully validated generation runtime model. Loading
// validates every cross reference eagerly so misconfiguration surfaces at
// startup, never mid-run.
type RuntimeConfig struct {
	Providers map[string]*Provider
	Profiles  map[string]*Profile
	Registry  *GraphRegistry
}

func (c *RuntimeConfig) Provider(providerID string) (*Provider, error) {
	provider, ok := c.Providers[providerID]
	if !ok {
		return nil, configErrorf("unknown provider id: %s", providerID)
	}
	return provider, nil
}

func (c *RuntimeConfig) Profile(profileID string) (*Profile, error) {
	profile, ok := c.Profiles[profileID]
	if !ok {
		return nil, configErrorf("unknown llm profile id: %s", profileID)
	}
	return profile, nil
}

func (c *RuntimeConfig) ResolveGraph(graphID string) (*GraphDefinition, error) {
	return c.Registry.Resolve(graphID)
}
