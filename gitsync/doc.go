// Package gitsync mirrors the modpack repository into a local instance folder.
//
// The local copy is treated as non-authoritative inside the managed
// directories: tracked files there are restored and untracked files are
// removed on every run. Outside of them, local commits are preserved by
// merging, and a conflicting merge aborts the run without committing.
package gitsync
