// Package language normalizes narration language codes and maps them to
// display names and file name stems.
package language
