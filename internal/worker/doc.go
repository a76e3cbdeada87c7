// Package worker processes queued image-edit and image-to-video tasks.
//
// A worker holds a file lock so only one runs per state directory. On start
// it returns tasks left in processing by a crashed run to pending and marks
// their ledger runs failed. Each cycle walks every unit (or one document's
// units), claims pending tasks in target order, runs the generation model on
// the unit's latest primary image, and commits the result through the
// version manager. A failed task is archived with its error and the cycle
// continues; a failed cycle is logged and retried after the error interval.
// Cancellation is honored between tasks, never mid-task.
package worker
