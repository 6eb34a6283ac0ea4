// Package destination derives Category/YYYY/Mon directories and collision-free
// file names inside them.
//
// Directory derivation and collision resolution are kept separate: the first
// is idempotent and safe to repeat, the second is a check-then-create probe
// that is only correct while the caller holds the Locks entry for the target
// directory.
package destination
