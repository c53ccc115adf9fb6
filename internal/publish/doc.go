// Package publish decides whether a transformed repository's changes leave
// the machine and pushes them, directly or through a reviewed pull request.
package publish
