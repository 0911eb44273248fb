package llm

import (
	"context"
	"fmt"

	"github.com/kayz/scout/internal/config"
)

// Generator is the text-generation service behind theme extraction and
// research summarization. Generate always returns a string: connectivity
// or provider failures come back as a descriptive error string, never as
// an error value, so callers can feed the output straight into a response.
type Generator interface {
	Generate(ctx context.Context, prompt, systemPrompt string) string
}

// New creates the generator selected by the config.
func New(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllama(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
