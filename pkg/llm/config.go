package llm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultModel      = "gpt-4o"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	defaultLogLevel   = "info"

	envAPIKey       = "OPENAI_API_KEY"
	envBaseURL      = "OPENAI_BASE_URL"
	envDefaultModel = "OPENAI_DEFAULT_MODEL"
	envTimeout      = "OPENAI_TIMEOUT"
	envMaxRetries   = "OPENAI_MAX_RETRIES"
)

// Config is the llm section of the service config, usually etc/llm.yaml.
type Config struct {
	BaseURL      string                 `yaml:"base_url"`
	APIKey       string                 `yaml:"api_key"`
	DefaultModel string                 `yaml:"default_model"`
	Timeout      time.Duration          `yaml:"-"`
	MaxRetries   int                    `yaml:"max_retries"`
	LogLevel     string                 `yaml:"log_level"`
	Models       map[string]ModelConfig `yaml:"models"`
}

// ModelConfig holds per-alias defaults. Nil knobs leave the provider default.
type ModelConfig struct {
	Provider    string   `yaml:"provider"`
	ModelName   string   `yaml:"model_name"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
	TopP        *float64 `yaml:"top_p,omitempty"`
}

// fileConfig mirrors Config with the timeout kept as text until env
// expansion has run.
type fileConfig struct {
	Config  `yaml:",inline"`
	Timeout string `yaml:"timeout"`
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open llm config: %w", err)
	}
	defer f.Close()
	return LoadConfigFromReader(f)
}

// LoadConfigFromReader decodes YAML, expands ${VAR} references, applies the
// OPENAI_* environment overrides and then fills defaults.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	var fc fileConfig
	if err := yaml.NewDecoder(r).Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal llm config: %w", err)
	}
	cfg := fc.Config

	for _, o := range []struct {
		dst *string
		env string
	}{
		{&cfg.APIKey, envAPIKey},
		{&cfg.BaseURL, envBaseURL},
		{&cfg.DefaultModel, envDefaultModel},
		{&fc.Timeout, envTimeout},
	} {
		*o.dst = envOr(o.env, os.ExpandEnv(*o.dst))
	}
	if raw := os.Getenv(envMaxRetries); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.MaxRetries = n
		}
	}

	timeout, err := parseTimeout(fc.Timeout)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("llm config: invalid timeout %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("llm config: timeout must be positive, got %s", d)
	}
	return d, nil
}

func (c *Config) fillDefaults() {
	setDefault := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	setDefault(&c.BaseURL, defaultBaseURL)
	setDefault(&c.DefaultModel, defaultModel)
	setDefault(&c.LogLevel, defaultLogLevel)
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
}

func (c *Config) Validate() error {
	for _, req := range []struct{ val, name string }{
		{c.APIKey, "api_key"},
		{c.BaseURL, "base_url"},
		{c.DefaultModel, "default_model"},
	} {
		if strings.TrimSpace(req.val) == "" {
			return fmt.Errorf("llm config: %s is required", req.name)
		}
	}
	if c.Timeout <= 0 {
		return errors.New("llm config: timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("llm config: max_retries cannot be negative")
	}
	return nil
}

// Model looks up the defaults configured for alias.
func (c *Config) Model(alias string) (ModelConfig, bool) {
	mc, ok := c.Models[alias]
	return mc, ok
}

// ModelID resolves alias, or the default model when alias is blank, to the id
// sent upstream.
func (c *Config) ModelID(alias string) string {
	if alias = strings.TrimSpace(alias); alias == "" {
		alias = c.DefaultModel
	}
	mc, _ := c.Model(alias)
	return ResolveModelID(alias, mc)
}

// Clone copies c including its model map.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Models != nil {
		cp.Models = make(map[string]ModelConfig, len(c.Models))
		for alias, mc := range c.Models {
			cp.Models[alias] = mc
		}
	}
	return &cp
}
