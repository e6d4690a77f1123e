package llm

import "strings"

const modelSeparator = "/"

// ResolveModelID maps an alias to the identifier sent upstream. An alias that
// already carries a provider prefix passes through. Otherwise the configured
// model name wins, prefixed with the provider only when one is configured,
// which is what OpenAI-compatible gateways expect.
func ResolveModelID(alias string, cfg ModelConfig) string {
	model := strings.TrimSpace(alias)
	if strings.Contains(model, modelSeparator) {
		return model
	}

	name := strings.TrimSpace(cfg.ModelName)
	if name == "" {
		name = model
	}

	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" || strings.Contains(name, modelSeparator) {
		return name
	}
	return provider + modelSeparator + name
}
