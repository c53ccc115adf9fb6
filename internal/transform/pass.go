package transform

import (
	"context"

	"github.com/gardenerhq/gardener/internal/workset"
)

// PassTarget hands a cleanup pass the repository it operates on, including
// the shared analysis metadata reachable through the repository.
type PassTarget struct {
	Repository *workset.WorkingRepository
}

// PassResult reports what a cleanup pass did to the repository tree.
type PassResult struct {
	Changed       bool
	ChangedFiles  []string
	NeedsReview   bool
	CommitMessage string
}

// Pass is a single cleanup step applied to a working repository. Passes edit
// the repository tree only; the runner owns committing and state flags.
type Pass interface {
	Name() string
	Apply(executionContext context.Context, target PassTarget) (PassResult, error)
}
