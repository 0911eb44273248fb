package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kayz/scout/internal/config"
)

// OpenAI generates text via the OpenAI chat completion API. Any
// OpenAI-compatible endpoint works by overriding base_url.
type OpenAI struct {
	model  string
	client *openai.Client
}

func NewOpenAI(cfg config.LLMConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAI{
		model:  model,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (o *OpenAI) Generate(ctx context.Context, prompt, systemPrompt string) string {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return fmt.Sprintf("Error generating text: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "Error generating text: empty completion"
	}
	return resp.Choices[0].Message.Content
}
