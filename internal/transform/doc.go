// Package transform runs the configured cleanup-pass pipeline over working
// repositories, committing the changes each pass produces.
package transform
