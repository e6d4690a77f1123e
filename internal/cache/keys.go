package cache

import (
	"strings"
	"time"

	"github.com/VikasCh3108/Solar-AI/internal/config"
)

// Namespace is the Redis key prefix for the Solar-AI application.
const Namespace = "solarai"

const defaultDetectionTTL = time.Hour

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Detection time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Detection: durationOrDefault(cfg.Detection, defaultDetectionTTL),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// DetectionKey stores a detector response for one image digest and model.
func DetectionKey(digest, model string) string {
	return formatKey("detection", digest, model)
}
