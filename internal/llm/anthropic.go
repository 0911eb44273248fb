package llm

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/kayz/scout/internal/config"
)

// Anthropic generates text via the Anthropic messages API.
type Anthropic struct {
	model  anthropic.Model
	client *anthropic.Client
}

func NewAnthropic(cfg config.LLMConfig) *Anthropic {
	opts := []anthropic.ClientOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaude3Dot5SonnetLatest)
	}

	return &Anthropic{
		model:  anthropic.Model(model),
		client: anthropic.NewClient(cfg.APIKey, opts...),
	}
}

func (a *Anthropic) Generate(ctx context.Context, prompt, systemPrompt string) string {
	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     a.model,
		System:    systemPrompt,
		MaxTokens: 2048,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return fmt.Sprintf("Error generating text: %v", err)
	}
	return resp.GetFirstContentText()
}
