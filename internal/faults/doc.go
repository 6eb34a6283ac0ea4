// Package faults defines the shared error markers and context helpers used by
// the organization engine and the CLI.
//
// Key responsibilities:
//   - Sentinel markers plus the Wrap helper so configuration problems can be
//     told apart from per-file failures with errors.Is.
//   - Context helpers that stamp run identifiers and watched roots for
//     structured logging.
//
// Per-file failures are not errors in this codebase; they travel as mover
// outcomes. Only startup problems surface as ErrConfiguration.
package faults
