// Package watcher turns filesystem notifications for the organized root into
// debounced organize requests.
//
// A single dispatcher goroutine consumes events from a Source. Each eligible
// path gets a timer that restarts on every new event; when a path has been
// quiet for the debounce window it is handed to the dispatch callback in its
// own goroutine. Directory events, the category subtrees, and anything below
// the first level of the root are ignored.
package watcher
