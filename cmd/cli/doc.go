// Package cli constructs the gardener command-line interface, wiring the
// Cobra root command, configuration loader, and structured logging
// primitives around the batch cleanup engine. It exposes helpers to build
// reusable application instances and to execute the gardener run.
package cli
