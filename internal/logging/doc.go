// Package logging provides slog helpers for consistent structured logging.
//
// It centralizes attribute key names so log queries can rely on stable
// field names, and provides sanitizers for values that must never appear
// in logs verbatim (API tokens, app passwords).
package logging
