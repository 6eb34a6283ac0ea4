// Package organizer drives one file, or every direct entry of the root, from
// discovery to its Category/Year/Month home.
//
// For each candidate it filters out directories, symlinks, hidden entries,
// and partial downloads, asks the categorizer for a label, resolves a
// conflict-free destination while holding that directory's lock, and hands
// the move to the mover. Every terminal outcome is reported to a report.Sink;
// per-file problems are results, never returned errors.
package organizer
