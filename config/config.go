// Package config loads the application configuration.
//
// Configuration is a single YAML document with sections for the Jira
// connection, the LLM provider, and the audit store. Values of the form
// ${ENV_NAME} are expanded from the environment at load time so credentials
// stay out of the file itself.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/reqflow/jira"
)

// Configuration errors.
var (
	ErrLLMProviderInvalid = errors.New("llm provider must be anthropic, openai, or mock")
	ErrAuditPathRequired  = errors.New("audit path is required when auditing is enabled")
)

// LLMConfig selects and configures the language-model provider.
type LLMConfig struct {
	// Provider is "anthropic", "openai", or "mock".
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// APIKey authenticates against the provider. Usually ${VAR}-expanded.
	APIKey string `yaml:"api_key"`

	// MaxTokens caps response length. Zero uses the provider default.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls sampling. Zero uses the provider default.
	Temperature float64 `yaml:"temperature"`
}

// AuditConfig configures the audit store.
type AuditConfig struct {
	// Enabled turns audit recording on. When false the service uses a
	// no-op recorder.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database path. ":memory:" is accepted.
	Path string `yaml:"path"`
}

// NotifyConfig configures outbound event notifications. All channels are
// optional; events always go to the service logger.
type NotifyConfig struct {
	// SlackWebhook is a Slack incoming-webhook URL.
	SlackWebhook string `yaml:"slack_webhook"`

	// SlackChannel overrides the webhook's default channel.
	SlackChannel string `yaml:"slack_channel"`

	// WebhookURL receives events as JSON POSTs.
	WebhookURL string `yaml:"webhook_url"`
}

// Config is the top-level application configuration.
type Config struct {
	Jira   *jira.Config `yaml:"jira"`
	LLM    LLMConfig    `yaml:"llm"`
	Audit  AuditConfig  `yaml:"audit"`
	Notify NotifyConfig `yaml:"notify"`
}

// Default returns a Config with defaults applied.
func Default() *Config {
	return &Config{
		Jira: jira.DefaultConfig(),
		LLM: LLMConfig{
			Provider: "anthropic",
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    "reqflow.db",
		},
	}
}

// Load reads, env-expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config. Unknown keys are
// rejected so typos surface at startup instead of silently using defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Jira == nil {
		return jira.ErrConfigURLRequired
	}
	if err := c.Jira.Validate(); err != nil {
		return err
	}

	switch c.LLM.Provider {
	case "anthropic", "openai", "mock":
	default:
		return ErrLLMProviderInvalid
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return ErrAuditPathRequired
	}

	return nil
}
