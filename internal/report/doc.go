// Package report carries terminal organize outcomes from the engine to its
// observers. The engine builds Events; sinks decide how they are rendered or
// stored.
package report
