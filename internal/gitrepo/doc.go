// Package gitrepo manipulates local Git working copies through go-git.
//
// It exposes RepositoryManager for cloning and opening repositories and a
// Repository handle implementing the branch, commit, and push operations the
// batch pipeline performs.
package gitrepo
