package observability

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger. Console format uses tint for
// readable interactive output; anything else gets JSON for log
// shippers. Logs go to stderr so stdout stays clean for scripting.
func NewLogger(level slog.Level, format string) *slog.Logger {
	if format == "console" {
		h := tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", "nowcast")
	}

	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h).With("app", "nowcast")
}
