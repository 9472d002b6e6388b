package ai

import "sync/atomic"

// debugLoggingEnabled gates the per-decision trace of the AI.
// Set via EnableDebugLogging() during initialization based on the configured log level.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables the AI decision trace.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if the AI decision trace is on.
// Guard every per-cycle slog.Debug call with it:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("escape tile chosen", "unit", id, "score", score)
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
