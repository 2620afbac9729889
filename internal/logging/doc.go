// Package logging builds the process-wide slog logger with console and
// JSON handlers selected by configuration.
package logging
