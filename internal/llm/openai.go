package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/esperluet/cv-smarter/internal/genconfig"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIChatMsg `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type openAIChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *ConfigurableGateway) openAIGenerate(ctx context.Context, provider *genconfig.Provider, req Request) (string, error) {
	apiKey, err := resolveAPIKey(provider)
	if err != nil {
		return "", err
	}
	baseURL := provider.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/chat/completions"
	body := openAIChatRequest{
		Model:       req.Model,
		Messages:    []openAIChatMsg{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if provider.Organization != "" {
		httpReq.Header.Set("OpenAI-Organization", provider.Organization)
	}
	for key, value := range provider.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	resp, err := g.client(provider).Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%s request failed: %s: %s", provider.ID, resp.Status, strings.TrimSpace(string(payload)))
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", provider.ID)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
