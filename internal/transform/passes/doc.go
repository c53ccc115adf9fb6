// Package passes ships the cleanup passes the pipeline can be configured
// with and the factory that builds a pipeline from configuration.
package passes
