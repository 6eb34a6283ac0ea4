// Package main hosts the sortbot CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, opens a session that
// owns the logger, root lock, and history ledger, and then either organizes
// the root in one batch pass or watches it until interrupted. Outcome tables
// and history listings are rendered with go-pretty.
//
// Keep this package lean: behavior belongs in the internal packages and is
// surfaced here through dedicated commands or flags.
package main
