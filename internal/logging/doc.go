// Package logging builds the slog loggers used across picframe. It provides
// a console handler with aligned key=value output, a JSON handler for
// machine-readable logs, and attribute helpers shared by the supervisor and
// its collaborators.
package logging
