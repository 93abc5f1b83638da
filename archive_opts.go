package testract

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets a logger for parse and extraction diagnostics.
// By default, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}
