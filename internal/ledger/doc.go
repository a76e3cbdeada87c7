// Package ledger persists operator state and run history in SQLite.
//
// It records which documents an operator marked as done, every worker task
// run (image edit and image-to-video), and every batch stage run. Version
// history itself stays in each unit's versions.json; the ledger never
// decides which version is current.
package ledger
