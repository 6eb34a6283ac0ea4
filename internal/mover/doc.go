// Package mover relocates a single file to a destination that was verified
// free, without ever overwriting existing data.
//
// Each attempt re-checks the source, the destination directory, and the
// destination name before renaming. Failures are classified into a small set
// of kinds; only a locked file is retried, with a doubling backoff that
// honours context cancellation. Moves across filesystems fall back to a
// verified copy followed by removal of the source.
package mover
