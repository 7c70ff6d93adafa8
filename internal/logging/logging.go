package logging

import (
	"io"
	"log/slog"
)

// NewStructuredLogger creates a slog logger writing text records to w at the
// given level.
func NewStructuredLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SafeCloseWithLogging closes c and logs a warning when closing fails. Meant
// for deferred closes of response bodies and files where the error cannot be
// returned.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, name string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close resource", "resource", name, "error", err)
	}
}
