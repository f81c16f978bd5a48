package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"netero/internal/trace"
)

// Config holds all netero configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Chat    ChatConfig    `yaml:"chat"`
	Shell   ShellConfig   `yaml:"shell"`
	Logging LoggingConfig `yaml:"logging"`
	Trace   TraceConfig   `yaml:"trace"`
}

// ChatConfig configures the interactive session.
type ChatConfig struct {
	AssistantName string `yaml:"assistant_name"`
	// Stream is the initial value of the /stream toggle.
	Stream bool `yaml:"stream"`
	// SavePrefix names /save output: <prefix>.<timestamp>.md
	SavePrefix string `yaml:"save_prefix"`
	// Verbose echoes assembled prompts before sending them.
	Verbose  bool `yaml:"verbose"`
	Markdown bool `yaml:"markdown"`
	// HistoryFile persists line-editor history; empty disables it.
	HistoryFile string `yaml:"history_file"`
}

// ShellConfig configures inline command execution.
type ShellConfig struct {
	Shell          string `yaml:"shell"` // empty = $SHELL, then sh
	Login          bool   `yaml:"login"`
	MaxOutputBytes int64  `yaml:"max_output_bytes"`
}

// TraceConfig configures the trace datagram socket.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Socket  string `yaml:"socket"`
}

// DefaultTraceSocket is where `netero trace` listens by default.
const DefaultTraceSocket = trace.DefaultSocket

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderNetero,
			Timeout:  "120s",
		},
		Chat: ChatConfig{
			AssistantName: "Netero",
			SavePrefix:    "netero",
			Markdown:      true,
		},
		Shell: ShellConfig{
			Login:          true,
			MaxOutputBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Trace: TraceConfig{
			Socket: DefaultTraceSocket,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/netero/config.yaml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".netero", "config.yaml")
	}
	return filepath.Join(dir, "netero", "config.yaml")
}

// StateDir returns the directory for logs and line-editor history.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "netero")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".netero"
	}
	return filepath.Join(home, ".local", "state", "netero")
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// Environment overrides are applied last in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Redacted returns a copy safe for display.
func (c *Config) Redacted() *Config {
	out := *c
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = "****"
	}
	return &out
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("NETERO_PROVIDER"); p != "" {
		c.LLM.Provider = strings.ToLower(p)
	}

	c.applyProviderEnv()

	if v := os.Getenv("NETERO_STREAM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Chat.Stream = b
		}
	}

	if v := os.Getenv("NETERO_TRACE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Trace.Enabled = b
		}
	}
}

func (c *Config) applyProviderEnv() {
	spec, known := Providers[c.LLM.Provider]
	if known {
		if key := os.Getenv(spec.KeyEnv); key != "" {
			c.LLM.APIKey = key
		}
	}

	if c.LLM.Provider == ProviderNetero {
		if url := os.Getenv("NETERO_URL"); url != "" {
			c.LLM.BaseURL = url
		}
		if model := os.Getenv("NETERO_MODEL"); model != "" {
			c.LLM.Model = model
		}
	}
}

// UseProvider switches to another provider (the --provider flag).
// Credentials, endpoint and model configured for the previous provider are
// dropped and re-read from the new provider's environment.
func (c *Config) UseProvider(name string) {
	name = strings.ToLower(name)
	if name == "" || name == c.LLM.Provider {
		return
	}
	c.LLM.Provider = name
	c.LLM.APIKey = ""
	c.LLM.BaseURL = ""
	c.LLM.Model = ""
	c.applyProviderEnv()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	spec, ok := Providers[c.LLM.Provider]
	if !ok {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders())
	}

	if spec.KeyRequired && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured for %s (set %s)", c.LLM.Provider, spec.KeyEnv)
	}
	if c.ResolvedBaseURL() == "" && c.LLM.Provider != ProviderGemini {
		return fmt.Errorf("no endpoint configured for %s (set NETERO_URL or llm.base_url)", c.LLM.Provider)
	}
	if c.ResolvedModel() == "" {
		return fmt.Errorf("no model configured for %s (set NETERO_MODEL or llm.model)", c.LLM.Provider)
	}
	if c.Shell.MaxOutputBytes < 0 {
		return fmt.Errorf("shell.max_output_bytes must not be negative")
	}
	return nil
}
