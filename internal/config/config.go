package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the scout backend.
type Config struct {
	Port      int             `yaml:"port"`
	DataDir   string          `yaml:"data_dir"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	LLM       LLMConfig       `yaml:"llm,omitempty"`
	Embedding EmbeddingConfig `yaml:"embedding,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Research  ResearchConfig  `yaml:"research,omitempty"`
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LLMConfig selects the text-generation provider.
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty"` // "ollama", "openai", "anthropic"
	Model    string `yaml:"model,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// EmbeddingConfig controls the local document store. When disabled the
// upload/ingest endpoints degrade to a no-op.
type EmbeddingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// SearchConfig selects the web search engine.
type SearchConfig struct {
	Engine     string `yaml:"engine,omitempty"` // "duckduckgo", "tavily"
	APIKey     string `yaml:"api_key,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	MaxResults int    `yaml:"max_results,omitempty"`
}

// ResearchConfig tunes the orchestrator.
type ResearchConfig struct {
	// BucketPauseSeconds is the minimum spacing between search calls for
	// consecutive buckets. The provider rate-limits aggressive clients.
	BucketPauseSeconds int `yaml:"bucket_pause_seconds"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:    8000,
		DataDir: "data",
		Logging: LoggingConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "mistral",
			BaseURL:  "http://localhost:11434",
		},
		Embedding: EmbeddingConfig{
			Enabled: false,
			Model:   "nomic-embed-text",
			BaseURL: "http://localhost:11434/api",
		},
		Search: SearchConfig{
			Engine:     "duckduckgo",
			MaxResults: 10,
		},
		Research: ResearchConfig{
			BucketPauseSeconds: 1,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return ".scout.yaml"
}

// Load reads the config from the default path, falling back to defaults
// when the file does not exist.
func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath reads the config from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets API keys come from the environment so they stay out of
// config files.
func (c *Config) applyEnv() {
	if v := os.Getenv("SCOUT_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("SCOUT_SEARCH_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
}

func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
