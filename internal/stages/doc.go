// Package stages drives the batch pipeline steps that feed the version store:
// the kid-friendly bilingual rewrite, narration, page video composition, and
// slideshow assembly, plus fast-forwarding a document to its expected version.
//
// Drivers never touch version files directly. They read inputs through the
// version manager's latest pointers and commit outputs through CreateVersion
// or CommitAt. External collaborators (LLM, text-to-speech, ffmpeg) are
// injected as small interfaces so tests can substitute fakes.
package stages
