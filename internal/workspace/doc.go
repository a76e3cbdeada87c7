// Package workspace addresses documents and their content units on disk.
//
// The workspace root holds one directory per document; each document holds
// scene_NNNN unit directories plus document-level files such as the cleaned
// whole story and the rendered slideshows.
package workspace
