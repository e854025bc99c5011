// Package depgraph records which module loads which and reports cycles.
//
// Edges are deduplicated and kept in insertion order so that cycle reports
// and orderings are deterministic for a given load history. The graph is
// safe for concurrent use.
//
// # Cycles
//
// DetectCycles walks the graph depth-first with visiting/done marks and
// reports every back edge as the path from the revisited node to the
// current one. Self-edges are reported as single-element cycles.
//
// # Ordering
//
// Order sorts a set of names so that dependencies come before dependents.
// Names caught in a cycle keep their request order and are appended last.
package depgraph
