// Package logging assembles structured slog loggers and formatting helpers used
// across slidecast.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so worker and stage code can tag log lines with
// the document, content unit, and correlation ID they operate on. Loggers are
// always passed explicitly; there is no package-level logger.
package logging
