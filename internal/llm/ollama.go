package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kayz/scout/internal/config"
)

// Ollama talks to a local Ollama instance over its /api/generate endpoint.
type Ollama struct {
	model   string
	baseURL string
	client  *http.Client
}

func NewOllama(cfg config.LLMConfig) *Ollama {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "mistral"
	}

	return &Ollama{
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Minute, // local models can be slow
		},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	System string `json:"system,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate runs a non-streaming completion. Failures are reported inline
// as a sentinel string, matching the Generator contract.
func (o *Ollama) Generate(ctx context.Context, prompt, systemPrompt string) string {
	payload := ollamaRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
		System: systemPrompt,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("Error generating text: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Sprintf("Error generating text: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "Error: Could not connect to Ollama. Is it running?"
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error generating text: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error generating text: ollama http %d: %s", resp.StatusCode, string(body))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Sprintf("Error generating text: %v", err)
	}
	return parsed.Response
}
