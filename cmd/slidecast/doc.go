// Package main hosts the slidecast CLI entrypoint and command graph.
//
// The Cobra command tree covers artifact version management, the image task
// queue, batch pipeline stages, pipeline status, document completion state,
// preflight checks, and configuration scaffolding. Commands resolve
// configuration once through commandContext and delegate to the internal
// packages; nothing here talks to a daemon, so every command works whether or
// not slidecastd is running.
package main
