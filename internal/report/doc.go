// Package report prints per-repository outcomes and the run summary.
package report
