// Package workset defines the shared data model for a batch cleanup run:
// repository descriptors, working copies, analysis metadata, and the
// accumulator that survives partial failures.
package workset
