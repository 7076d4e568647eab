// Package logging builds the structured loggers shared by the api and
// worker binaries. Output is JSON on stdout, one logger per service, so
// every record carries the service name.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger returns a service-scoped JSON logger. Unknown level names
// fall back to info rather than failing startup.
func NewJSONLogger(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With(slog.String("service", service))
}

// ParseLevel maps a config-supplied level name onto slog's levels.
func ParseLevel(level string) slog.Level {
	var parsed slog.Level
	name := strings.TrimSpace(level)
	if name == "warning" {
		name = "warn"
	}
	if err := parsed.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return parsed
}
