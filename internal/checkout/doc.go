// Package checkout materializes working copies for discovered repositories.
// Clones run concurrently but their remote calls are paced through the
// shared rate governor, and working copies land in deterministic
// per-repository directories under the run's working directory.
package checkout
