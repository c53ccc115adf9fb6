// Package analysis feeds checked-out repository trees through an analyzer
// exactly once and produces the shared metadata consumed by cleanup passes.
package analysis
