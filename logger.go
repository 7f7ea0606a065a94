package ipcsession

import (
	"io"
	"log/slog"
)

// NopLogger returns the logger every session, channel and process uses when
// WithLogger is not given. Records are formatted and dropped.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
