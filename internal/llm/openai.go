// Package llm – OpenAI-compatible backend.
//
// Uses the go-openai client against api.openai.com or any compatible serving
// endpoint (vLLM, llama.cpp server, ...). OpenAI's API has no top-k or repeat
// window knob; the repeat penalty maps onto the frequency penalty and the
// remaining options are dropped.
package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider via chat completions.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	opts   Options
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider constructs an OpenAIProvider. An empty baseURL targets
// the public OpenAI API.
func NewOpenAIProvider(apiKey, baseURL, model string, opts Options) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		opts:   opts,
	}
}

// Complete sends the prompt as a single user message and returns the first
// choice's content.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:        p.opts.MaxTokens,
		Temperature:      float32(p.opts.Temperature),
		TopP:             float32(p.opts.TopP),
		FrequencyPenalty: float32(p.opts.RepeatPenalty - 1), // 1.0 == neutral in sampler terms
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
