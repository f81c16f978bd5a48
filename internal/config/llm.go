package config

import (
	"sort"
	"time"
)

// LLMConfig configures the completion service.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // netero, codestral, openai, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     string  `yaml:"timeout"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

const (
	ProviderNetero    = "netero"
	ProviderCodestral = "codestral"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// ProviderSpec describes the fixed parts of a provider.
type ProviderSpec struct {
	KeyEnv      string
	KeyRequired bool
	BaseURL     string // empty = must be configured
	Model       string // empty = must be configured
}

// Providers maps provider names to their defaults.
// netero is a generic OpenAI-compatible endpoint configured entirely from
// NETERO_URL / NETERO_MODEL.
var Providers = map[string]ProviderSpec{
	ProviderNetero: {
		KeyEnv: "NETERO_API_KEY",
	},
	ProviderCodestral: {
		KeyEnv:      "CODE_API_KEY",
		KeyRequired: true,
		BaseURL:     "https://codestral.mistral.ai/v1/chat/completions",
		Model:       "codestral-latest",
	},
	ProviderOpenAI: {
		KeyEnv:      "OPENAI_API_KEY",
		KeyRequired: true,
		BaseURL:     "https://api.openai.com/v1/chat/completions",
		Model:       "gpt-4o-mini",
	},
	ProviderGemini: {
		KeyEnv:      "GEMINI_API_KEY",
		KeyRequired: true,
		Model:       "gemini-2.5-flash",
	},
}

// ValidProviders lists all supported providers, sorted.
func ValidProviders() []string {
	out := make([]string, 0, len(Providers))
	for name := range Providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ResolvedBaseURL returns the configured endpoint or the provider default.
func (c *Config) ResolvedBaseURL() string {
	if c.LLM.BaseURL != "" {
		return c.LLM.BaseURL
	}
	return Providers[c.LLM.Provider].BaseURL
}

// ResolvedModel returns the configured model or the provider default.
func (c *Config) ResolvedModel() string {
	if c.LLM.Model != "" {
		return c.LLM.Model
	}
	return Providers[c.LLM.Provider].Model
}

// GetLLMTimeout returns the LLM timeout as a duration.
// A zero or invalid timeout falls back to 120s.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}
