// Package logging defines the structured logging interface used across
// snipkeeper and its slog and zap backends.
package logging

import (
	"context"
	"strings"
)

// Logger is a context-aware, structured logger. Args are key-value pairs:
//
//	log.Info(ctx, "item created", "id", id, "category", categoryID)
//
// Values under secret keys (see Redacted) never reach the sink.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

// Component tags every entry of the returned logger with the subsystem name.
func Component(l Logger, name string) Logger {
	return l.With("component", name)
}

const redactedValue = "[redacted]"

var secretKeys = map[string]struct{}{
	"value":      {},
	"content":    {},
	"credential": {},
	"password":   {},
	"secret":     {},
	"token":      {},
}

// Redacted reports whether values logged under key are masked.
func Redacted(key string) bool {
	_, ok := secretKeys[strings.ToLower(key)]
	return ok
}

// redact returns args with the values of secret keys masked. args is
// copied only when something has to change.
func redact(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || !Redacted(key) {
			continue
		}
		if out == nil {
			out = append([]any(nil), args...)
		}
		out[i+1] = redactedValue
	}
	if out == nil {
		return args
	}
	return out
}
