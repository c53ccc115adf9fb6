// Package hosting adapts the GitHub API to the narrow capability surfaces
// the batch pipeline depends on: repository listing, authenticated-user
// lookup, pull request creation, and issue mutation.
package hosting
