// Package logging builds the process-wide slog logger and provides attr
// helpers plus context-derived field extraction used across the worker.
package logging
