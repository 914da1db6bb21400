// Package config loads the service configuration from JSON and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Config is the service configuration.
type Config struct {
	ServerAddr     string        `json:"server_addr,omitempty"`
	DBPath         string        `json:"db_path,omitempty"`
	TimeoutSeconds int           `json:"timeout_seconds,omitempty"`
	LLM            *LLMConfig    `json:"llm,omitempty"`
	Search         *SearchConfig `json:"search,omitempty"`
}

// LLMConfig selects the chat model.
type LLMConfig struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	APIKeyEnv   string  `json:"api_key_env,omitempty"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// SearchConfig selects the citation search provider.
type SearchConfig struct {
	Provider   string `json:"provider,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	APIKeyEnv  string `json:"api_key_env,omitempty"`
	Depth      string `json:"depth,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	temperature := 0.75
	return Config{
		ServerAddr:     ":8080",
		TimeoutSeconds: 300,
		LLM: &LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: &temperature,
		},
		Search: &SearchConfig{
			Provider:   "tavily",
			APIKeyEnv:  "TAVILY_API_KEY",
			Depth:      "advanced",
			MaxResults: 5,
		},
	}
}

// Load reads .env files (when present), then the JSON config at path. A
// missing config file yields Default(). Keys left empty are read from the
// environment variables named by api_key_env.
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadEnv(envFiles...); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.fill()
	return cfg, cfg.Validate()
}

func loadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// fill applies defaults to a partially specified file and resolves keys.
func (c *Config) fill() {
	def := Default()
	if c.ServerAddr == "" {
		c.ServerAddr = def.ServerAddr
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.LLM == nil {
		c.LLM = def.LLM
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = def.LLM.APIKeyEnv
	}
	if c.LLM.Temperature == nil {
		c.LLM.Temperature = def.LLM.Temperature
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}

	if c.Search == nil {
		c.Search = def.Search
	}
	if c.Search.Provider == "" {
		c.Search.Provider = def.Search.Provider
	}
	if c.Search.APIKeyEnv == "" {
		c.Search.APIKeyEnv = def.Search.APIKeyEnv
	}
	if c.Search.Depth == "" {
		c.Search.Depth = def.Search.Depth
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = def.Search.MaxResults
	}
	if c.Search.APIKey == "" {
		c.Search.APIKey = os.Getenv(c.Search.APIKeyEnv)
	}
}

// Validate checks provider names; missing keys are reported when clients are built.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "mock":
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible API at its own endpoint.
		if c.LLM.BaseURL == "" {
			return errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	switch c.Search.Provider {
	case "tavily", "none":
	default:
		return fmt.Errorf("search provider %s not supported", c.Search.Provider)
	}
	return nil
}
