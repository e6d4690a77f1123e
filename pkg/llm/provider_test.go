package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveModelID(t *testing.T) {
	tests := []struct {
		name  string
		alias string
		cfg   ModelConfig
		want  string
	}{
		{name: "bare alias", alias: "gpt-4o", want: "gpt-4o"},
		{name: "alias mapped to model name", alias: "vision", cfg: ModelConfig{ModelName: "gpt-4o-mini"}, want: "gpt-4o-mini"},
		{name: "provider prefix", alias: "vision", cfg: ModelConfig{Provider: "openai", ModelName: "gpt-4o"}, want: "openai/gpt-4o"},
		{name: "qualified alias passes through", alias: "openai/gpt-4o", cfg: ModelConfig{Provider: "x", ModelName: "y"}, want: "openai/gpt-4o"},
		{name: "qualified model name not re-prefixed", alias: "vision", cfg: ModelConfig{Provider: "openai", ModelName: "azure/gpt-4o"}, want: "azure/gpt-4o"},
		{name: "whitespace trimmed", alias: "  gpt-4o  ", want: "gpt-4o"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveModelID(tt.alias, tt.cfg))
		})
	}
}
