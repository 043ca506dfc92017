// Package llm wraps the text-generation model behind a small provider
// interface. The backend process does not load a model itself; it talks to a
// serving runtime (an Ollama daemon or an OpenAI-compatible endpoint) over
// HTTP and treats it as an external collaborator.
//
// Generation parameters are fixed per deployment, not per request: callers
// hand over a prompt string and get back a completion string. Cancellation
// flows through the context.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the contract for a text-generation backend.
//
// Complete must honor ctx cancellation and return promptly once the context
// is done. Implementations are safe for concurrent use; serialization of the
// underlying compute device is the Gate's job, not the provider's.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyCompletion is returned when the backend answers successfully but
// produces no choices/content to return.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Options carries the fixed sampling parameters applied to every generation
// call. Values come from configuration at startup.
type Options struct {
	MaxTokens     int     // bounded output length
	Temperature   float64 // sampling temperature
	TopK          int     // top-k sampling cutoff (ignored by OpenAI backends)
	TopP          float64 // nucleus sampling cutoff
	RepeatPenalty float64 // penalty applied to repeated tokens
	RepeatLastN   int     // window of recent tokens the penalty looks at
}

// New constructs a Provider for the given backend name ("ollama" or
// "openai"). Unknown names are rejected at startup rather than at the first
// chat turn.
func New(backend, baseURL, model, apiKey string, opts Options) (Provider, error) {
	switch backend {
	case "ollama":
		return NewOllamaProvider(baseURL, model, opts), nil
	case "openai":
		return NewOpenAIProvider(apiKey, baseURL, model, opts), nil
	default:
		return nil, fmt.Errorf("unknown LLM backend %q (want ollama or openai)", backend)
	}
}
