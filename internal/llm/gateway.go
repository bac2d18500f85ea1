package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/esperluet/cv-smarter/internal/genconfig"
)

// Request is one prompt invocation against a resolved provider/model pair.
type Request struct {
	Stage          string
	Provider       string
	Model          string
	Prompt         string
	Temperature    float64
	MaxTokens      *int
	TimeoutSeconds float64
}

// Gateway sends a rendered prompt to an LLM backend. Any failure is a hard
// stage failure for the caller.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ConfigurableGateway dispatches on the provider kind declared in the
// generation runtime config. HTTP clients are cached per provider so
// connection pools survive across stages.
type ConfigurableGateway struct {
	providers map[string]*genconfig.Provider

	mu      sync.Mutex
	clients map[string]*http.Client
}

func NewConfigurableGateway(providers map[string]*genconfig.Provider) *ConfigurableGateway {
	return &ConfigurableGateway{
		providers: providers,
		clients:   make(map[string]*http.Client),
	}
}

func (g *ConfigurableGateway) Generate(ctx context.Context, req Request) (string, error) {
	provider, ok := g.providers[req.Provider]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", req.Provider)
	}

	timeout := req.TimeoutSeconds
	if timeout <= 0 {
		timeout = provider.TimeoutSeconds
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout*float64(time.Second)))
		defer cancel()
	}

	var output string
	var err error
	switch provider.Kind {
	case genconfig.KindMock:
		output = mockResponse(req)
	case genconfig.KindOpenAI, genconfig.KindOpenAICompatible:
		output, err = g.openAIGenerate(ctx, provider, req)
	case genconfig.KindGemini:
		output, err = geminiGenerate(ctx, provider, req)
	default:
		return "", fmt.Errorf("unsupported provider kind %q for provider %q", provider.Kind, provider.ID)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("llm returned empty content for stage %q", req.Stage)
	}
	return output, nil
}

func (g *ConfigurableGateway) client(provider *genconfig.Provider) *http.Client {
	g.mu.Lock()
	defer g.mu.Unlock()
	if client, ok := g.clients[provider.ID]; ok {
		return client
	}
	client := &http.Client{}
	g.clients[provider.ID] = client
	return client
}

func resolveAPIKey(provider *genconfig.Provider) (string, error) {
	if provider.APIKeyEnv == "" {
		return "", nil
	}
	value := strings.TrimSpace(os.Getenv(provider.APIKeyEnv))
	if value == "" {
		return "", fmt.Errorf("provider %q api key env variable %q is missing or empty", provider.ID, provider.APIKeyEnv)
	}
	return value, nil
}
