// Package categorize maps file names to category labels by extension.
//
// The rule table is validated once at construction and never mutated, so a
// single Categorizer is shared by every organize attempt without locking.
package categorize
