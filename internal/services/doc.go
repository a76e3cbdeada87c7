// Package services defines shared utilities consumed by the pipeline stage
// drivers, the queue worker, and the external model integrations.
//
// Key responsibilities:
//   - Context helpers that stamp document names, unit labels, asset kinds, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     configuration problem from a flaky upstream API.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
