package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/VikasCh3108/Solar-AI/internal/config"
	"github.com/VikasCh3108/Solar-AI/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	model := cfg.VisionModel()
	if model == "" {
		model = "llm default"
	}
	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Vision: mode=%s model=%s max_tokens=%d force_json=%t", cfg.Vision.Mode, model, cfg.Vision.MaxTokens, cfg.Vision.ForceJSON),
		fmt.Sprintf("Image size: %dpx (upload limit %d bytes)", cfg.Imagery.Size, cfg.Imagery.MaxUploadBytes),
		fmt.Sprintf("Journal: %s", orNone(cfg.JournalDir)),
		fmt.Sprintf("Postgres: %s", presence(cfg.StoreEnabled())),
		fmt.Sprintf("Redis: %s", presence(cfg.CacheEnabled())),
		fmt.Sprintf("TTL (detection): %ds", cfg.TTL.Detection),
		sectionLine("LLM config", cfg.LLM),
		sectionLine("Solar config", cfg.Solar),
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "disabled"
	}
	return s
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case section.Value != nil && strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s (not loaded)", name, section.File)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
