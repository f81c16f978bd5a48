package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable applyEnvOverrides reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NETERO_PROVIDER", "NETERO_API_KEY", "NETERO_URL", "NETERO_MODEL",
		"CODE_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"NETERO_STREAM", "NETERO_TRACE",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderNetero, cfg.LLM.Provider)
	assert.Equal(t, "Netero", cfg.Chat.AssistantName)
	assert.Equal(t, "netero", cfg.Chat.SavePrefix)
	assert.False(t, cfg.Chat.Stream)
	assert.Equal(t, DefaultTraceSocket, cfg.Trace.Socket)
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "netero", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = ProviderCodestral
	cfg.LLM.APIKey = "sk-test"
	cfg.Chat.Stream = true
	cfg.Logging.Categories = map[string]bool{"api": false}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderCodestral, loaded.LLM.Provider)
	assert.Equal(t, "sk-test", loaded.LLM.APIKey)
	assert.True(t, loaded.Chat.Stream)
	assert.Equal(t, map[string]bool{"api": false}, loaded.Logging.Categories)
}

func TestLoad_MissingFileUsesDefaultsAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NETERO_URL", "http://localhost:9999/v1/chat/completions")
	t.Setenv("NETERO_MODEL", "local-model")
	t.Setenv("NETERO_API_KEY", "k")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/v1/chat/completions", cfg.ResolvedBaseURL())
	assert.Equal(t, "local-model", cfg.ResolvedModel())
	assert.Equal(t, "k", cfg.LLM.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("NETERO_PROVIDER selects provider and its key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NETERO_PROVIDER", "Codestral")
		t.Setenv("CODE_API_KEY", "code-key")
		t.Setenv("NETERO_API_KEY", "netero-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, ProviderCodestral, cfg.LLM.Provider)
		assert.Equal(t, "code-key", cfg.LLM.APIKey)
		assert.Equal(t, "https://codestral.mistral.ai/v1/chat/completions", cfg.ResolvedBaseURL())
		assert.Equal(t, "codestral-latest", cfg.ResolvedModel())
	})

	t.Run("NETERO_URL ignored for fixed providers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NETERO_URL", "http://elsewhere")

		cfg := DefaultConfig()
		cfg.LLM.Provider = ProviderCodestral
		cfg.applyEnvOverrides()
		assert.Empty(t, cfg.LLM.BaseURL)
	})

	t.Run("NETERO_STREAM parses booleans", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NETERO_STREAM", "true")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Chat.Stream)

		t.Setenv("NETERO_STREAM", "garbage")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Chat.Stream)
	})
}

func TestUseProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "netero-key"
	cfg.LLM.Model = "local"

	cfg.UseProvider("gemini")
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.ResolvedModel())
	assert.NoError(t, cfg.Validate())

	cfg.UseProvider("")
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "zai" }, "invalid LLM provider"},
		{"netero without url", func(c *Config) { c.LLM.Model = "m" }, "no endpoint"},
		{"netero without model", func(c *Config) { c.LLM.BaseURL = "http://x" }, "no model"},
		{"codestral without key", func(c *Config) { c.LLM.Provider = ProviderCodestral }, "CODE_API_KEY"},
		{"negative output cap", func(c *Config) {
			c.LLM.BaseURL, c.LLM.Model = "http://x", "m"
			c.Shell.MaxOutputBytes = -1
		}, "max_output_bytes"},
		{"netero keyless ok", func(c *Config) { c.LLM.BaseURL, c.LLM.Model = "http://x", "m" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoggingOptions(t *testing.T) {
	lc := LoggingConfig{Level: "warn"}
	assert.False(t, lc.Options(false).DebugMode)

	o := lc.Options(true)
	assert.True(t, o.DebugMode)
	assert.Equal(t, "debug", o.Level)
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "secret"
	assert.Equal(t, "****", cfg.Redacted().LLM.APIKey)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
}
