// Package versioning is the versioned artifact store for content units.
//
// Every content unit directory carries a versions.json record mapping each
// asset kind to an append-only history of numbered version files and a latest
// pointer. The Manager creates, restores, fast-forwards, deletes, migrates,
// discovers, and prunes versions; every mutation loads the whole record,
// mutates it in memory, and atomically replaces it on disk.
//
// Two processes share this store (the interactive CLI and the background
// worker) without a lock. DiscoverAndRegister is the convergence step: it only
// adds records for files it finds on disk and never renumbers or removes
// tracked ones, so either process may call it at any time.
package versioning
