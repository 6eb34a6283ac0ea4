// Package history persists organize outcomes in a SQLite ledger so past runs
// can be reviewed with `sortbot history`.
//
// The Store implements report.Sink. Entries are append-only and carry the run
// identifier from the context; the ledger is informational and is never used
// to undo a move.
package history
