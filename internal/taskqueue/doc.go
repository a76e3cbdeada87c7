// Package taskqueue persists image-edit and image-to-video requests as plain
// files inside content unit directories.
//
// A task file is named image_edit_prompt_for_v<N>.txt or
// image_to_video_prompt_for_v<N>.txt and holds either a bare prompt or a
// prompt preceded by "# Key: value" metadata lines carrying the status and
// timestamps. Status moves pending -> processing -> completed|failed; terminal
// tasks are renamed to .txt.completed or .txt.failed so the pending glob never
// sees them again. A later archive of the same target is numbered
// (.txt.2.failed) instead of replacing the earlier one. A single worker process is assumed; Claim is not atomic
// across processes.
package taskqueue
