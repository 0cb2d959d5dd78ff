package logging

import (
	"log/slog"
	"os"
)

// New returns a slog.Logger writing JSON when format is "json" and text otherwise.
func New(format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
