package llm

import (
	"context"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// Fields are structured attributes attached to a log line.
type Fields map[string]interface{}

// Logger is the client's logging seam; tests pass NopLogger.
type Logger interface {
	Debug(ctx context.Context, msg string, fields Fields)
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)
	Error(ctx context.Context, err error, fields Fields)
}

// NewLogger sets the logx level and returns a Logger writing through logx
// with fields as structured attributes.
func NewLogger(level string) Logger {
	logx.SetLevel(parseLevel(level))
	return logxLogger{}
}

type logxLogger struct{}

func (logxLogger) Debug(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Debugw(msg, logFields(fields)...)
}

func (logxLogger) Info(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Infow(msg, logFields(fields)...)
}

// Warn has no logx level of its own; it logs at info tagged severity=warn.
func (logxLogger) Warn(ctx context.Context, msg string, fields Fields) {
	logx.WithContext(ctx).Infow(msg, append(logFields(fields), logx.Field("severity", "warn"))...)
}

func (logxLogger) Error(ctx context.Context, err error, fields Fields) {
	logx.WithContext(ctx).Errorw(err.Error(), logFields(fields)...)
}

type nopLogger struct{}

func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(context.Context, string, Fields) {}
func (nopLogger) Info(context.Context, string, Fields)  {}
func (nopLogger) Warn(context.Context, string, Fields)  {}
func (nopLogger) Error(context.Context, error, Fields)  {}

func parseLevel(level string) uint32 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logx.DebugLevel
	case "error", "warn", "warning":
		return logx.ErrorLevel
	case "severe", "fatal":
		return logx.SevereLevel
	}
	return logx.InfoLevel
}

// logFields converts fields in key order so identical calls log identically.
func logFields(fields Fields) []logx.LogField {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]logx.LogField, 0, len(keys))
	for _, k := range keys {
		out = append(out, logx.Field(k, fields[k]))
	}
	return out
}
