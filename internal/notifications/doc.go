// Package notifications pushes worker and stage outcomes to ntfy.
//
// New returns a no-op Notifier when no topic is configured, so callers never
// branch on whether notifications are enabled. Delivery failures are returned
// to the caller, which logs them; a missed push never fails a task or stage.
package notifications
