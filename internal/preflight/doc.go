// Package preflight provides readiness checks for the directories, external
// binaries, and hosted APIs slidecast depends on.
//
// These checks run in two contexts:
//   - The worker calls RunAll once at startup and refuses to start when the
//     workspace or state directory is unusable.
//   - The CLI "slidecast status --services" command uses the individual
//     checks to display service health.
//
// API checks are skipped when the corresponding credential is empty.
package preflight
