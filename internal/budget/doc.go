// Package budget tracks how many repositories a run may still publish.
package budget
