package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/esperluet/cv-smarter/internal/genconfig"
)

func geminiGenerate(ctx context.Context, provider *genconfig.Provider, req Request) (string, error) {
	apiKey, err := resolveAPIKey(provider)
	if err != nil {
		return "", err
	}
	if apiKey == "" {
		return "", fmt.Errorf("provider %q requires an api_key_env", provider.ID)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}
	temperature := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*req.MaxTokens)
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		req.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}
