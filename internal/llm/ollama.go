// Package llm – Ollama backend.
//
// Talks to an Ollama daemon's /api/generate endpoint with streaming disabled.
// Ollama exposes the full set of sampling knobs this application fixes per
// deployment (top-k, repeat penalty and window), which makes it the default
// backend for locally served models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaProvider implements Provider against an Ollama HTTP endpoint.
type OllamaProvider struct {
	BaseURL string
	Model   string
	Opts    Options
	Client  *http.Client
}

var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider constructs an OllamaProvider with a generous client
// timeout; generation on CPU-only hosts can take minutes.
func NewOllamaProvider(baseURL, model string, opts Options) *OllamaProvider {
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		Opts:    opts,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	NumPredict    int     `json:"num_predict,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	RepeatLastN   int     `json:"repeat_last_n,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete sends the prompt to /api/generate and returns the completion text.
func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	payload := ollamaGenerateRequest{
		Model:  p.Model,
		Prompt: prompt,
		Stream: false,
		Options: &ollamaOptions{
			NumPredict:    p.Opts.MaxTokens,
			Temperature:   p.Opts.Temperature,
			TopK:          p.Opts.TopK,
			TopP:          p.Opts.TopP,
			RepeatPenalty: p.Opts.RepeatPenalty,
			RepeatLastN:   p.Opts.RepeatLastN,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Response == "" {
		return "", ErrEmptyCompletion
	}
	return out.Response, nil
}
