package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearOpenAIEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envAPIKey, envBaseURL, envDefaultModel, envTimeout, envMaxRetries} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearOpenAIEnv(t)
	path := filepath.Join(t.TempDir(), "llm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_key: "sk-test"
default_model: vision
timeout: 30s
max_retries: 2
log_level: debug
models:
  vision:
    model_name: gpt-4o
    temperature: 0.2
    max_tokens: 1024
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, "gpt-4o", cfg.ModelID(""))

	model, ok := cfg.Model("vision")
	require.True(t, ok)
	require.NotNil(t, model.MaxTokens)
	assert.Equal(t, 1024, *model.MaxTokens)
	assert.InDelta(t, 0.2, *model.Temperature, 1e-9)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "open llm config")
}

func TestLoadConfigDefaults(t *testing.T) {
	clearOpenAIEnv(t)
	cfg, err := LoadConfigFromReader(strings.NewReader(`api_key: k`))
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.DefaultModel)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearOpenAIEnv(t)
	t.Setenv(envAPIKey, "from-env")
	t.Setenv(envBaseURL, "http://localhost:8080/v1")
	t.Setenv(envDefaultModel, "gpt-4o-mini")
	t.Setenv(envTimeout, "45s")
	t.Setenv(envMaxRetries, "5")
	t.Setenv("CUSTOM_ORG_KEY", "expanded")

	cfg, err := LoadConfigFromReader(strings.NewReader(`
api_key: "${CUSTOM_ORG_KEY}"
base_url: https://api.openai.com/v1
default_model: gpt-4o
timeout: 10s
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "http://localhost:8080/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.DefaultModel)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRetries)

	t.Setenv(envAPIKey, "")
	cfg, err = LoadConfigFromReader(strings.NewReader(`api_key: "${CUSTOM_ORG_KEY}"`))
	require.NoError(t, err)
	assert.Equal(t, "expanded", cfg.APIKey)
}

func TestLoadConfigErrors(t *testing.T) {
	clearOpenAIEnv(t)
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing key", `default_model: gpt-4o`, "api_key is required"},
		{"bad timeout", "api_key: k\ntimeout: soon", "invalid timeout"},
		{"negative timeout", "api_key: k\ntimeout: -1s", "timeout must be positive"},
		{"bad yaml", "api_key: [", "unmarshal llm config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromReader(strings.NewReader(tt.yaml))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{APIKey: "k", BaseURL: "u", DefaultModel: "m", Timeout: time.Second}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Config){
		"base_url":    func(c *Config) { c.BaseURL = " " },
		"model":       func(c *Config) { c.DefaultModel = "" },
		"timeout":     func(c *Config) { c.Timeout = 0 },
		"max_retries": func(c *Config) { c.MaxRetries = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestConfigClone(t *testing.T) {
	var nilCfg *Config
	assert.Nil(t, nilCfg.Clone())

	cfg := &Config{Models: map[string]ModelConfig{"a": {ModelName: "x"}}}
	cp := cfg.Clone()
	cp.Models["a"] = ModelConfig{ModelName: "y"}
	assert.Equal(t, "x", cfg.Models["a"].ModelName)
}
