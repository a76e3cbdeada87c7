// Package logs reads the worker process log for "slidecast logs".
//
// The worker writes one file per run and points slidecastd.log at the newest
// one. Tail prints the last lines of that pointer and, in follow mode, keeps
// polling for appended lines, starting over when the pointer moves to a new
// run's file or the file is truncated.
package logs
