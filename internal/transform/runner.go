package transform

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	pipelineEmptyMessageConstant           = "transform runner requires at least one cleanup pass"
	repositoryHandleMissingMessageConstant = "working repository carries no source-control handle"
	passFailureTemplateConstant            = "cleanup pass %s failed for repository %s in %s: %v"
	commitChangesErrorTemplateConstant     = "commit changes: %w"
	defaultCommitMessageTemplateConstant   = "Automated cleanup: %s"
	repositoryExcludedDebugMessageConstant = "Skipped excluded repository"
	passAppliedDebugMessageConstant        = "Applied cleanup pass"
	repositoryNameLogFieldNameConstant     = "repository"
	passNameLogFieldNameConstant           = "pass"
	changedFileCountLogFieldNameConstant   = "changed_files"
	needsReviewLogFieldNameConstant        = "needs_review"
)

// ErrPipelineEmpty reports runner construction without any cleanup passes.
var ErrPipelineEmpty = errors.New(pipelineEmptyMessageConstant)

// ErrRepositoryHandleMissing reports a working repository without a handle.
var ErrRepositoryHandleMissing = errors.New(repositoryHandleMissingMessageConstant)

// TransformFailure identifies the repository and pass behind a pipeline error.
type TransformFailure struct {
	RepositoryName      string
	RepositoryDirectory string
	PassName            string
	Cause               error
}

// Error describes the transform failure.
func (failure *TransformFailure) Error() string {
	return fmt.Sprintf(passFailureTemplateConstant, failure.PassName, failure.RepositoryName, failure.RepositoryDirectory, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure *TransformFailure) Unwrap() error {
	return failure.Cause
}

// Dependencies enumerates the collaborators required by the transform runner.
type Dependencies struct {
	Passes []Pass
	Logger *zap.Logger
}

// Options configures a transform run.
type Options struct {
	ExcludedRepositoryNames []string
}

// Runner applies the cleanup-pass pipeline to one repository at a time.
type Runner struct {
	passes []Pass
	logger *zap.Logger
}

// NewRunner validates the dependencies and builds a transform runner.
func NewRunner(dependencies Dependencies) (*Runner, error) {
	if len(dependencies.Passes) == 0 {
		return nil, ErrPipelineEmpty
	}
	return &Runner{passes: dependencies.Passes, logger: resolveLogger(dependencies.Logger)}, nil
}

// TransformRepository applies every configured pass to the repository in
// order, commits the changes of each pass that touched files, and records
// dirty and review state on the repository. Excluded repositories are left
// untouched. The first pass or commit error aborts the pipeline for this
// repository and is returned wrapped in a TransformFailure.
func (runner *Runner) TransformRepository(executionContext context.Context, repository *workset.WorkingRepository, options Options) error {
	repositoryName := repository.Descriptor.Name
	if isRepositoryExcluded(repositoryName, options.ExcludedRepositoryNames) {
		runner.logger.Debug(repositoryExcludedDebugMessageConstant,
			zap.String(repositoryNameLogFieldNameConstant, repositoryName))
		return nil
	}
	if repository.Handle == nil {
		return &TransformFailure{
			RepositoryName:      repositoryName,
			RepositoryDirectory: repository.Directory,
			Cause:               ErrRepositoryHandleMissing,
		}
	}

	for _, cleanupPass := range runner.passes {
		passResult, passError := cleanupPass.Apply(executionContext, PassTarget{Repository: repository})
		if passError != nil {
			return &TransformFailure{
				RepositoryName:      repositoryName,
				RepositoryDirectory: repository.Directory,
				PassName:            cleanupPass.Name(),
				Cause:               passError,
			}
		}
		if !passResult.Changed {
			continue
		}

		commitMessage := passResult.CommitMessage
		if len(commitMessage) == 0 {
			commitMessage = fmt.Sprintf(defaultCommitMessageTemplateConstant, cleanupPass.Name())
		}
		commitError := repository.Handle.CommitChanges(executionContext, commitMessage)
		if commitError != nil {
			return &TransformFailure{
				RepositoryName:      repositoryName,
				RepositoryDirectory: repository.Directory,
				PassName:            cleanupPass.Name(),
				Cause:               fmt.Errorf(commitChangesErrorTemplateConstant, commitError),
			}
		}

		repository.Dirty = true
		if passResult.NeedsReview {
			repository.NeedsReview = true
		}
		runner.logger.Debug(passAppliedDebugMessageConstant,
			zap.String(repositoryNameLogFieldNameConstant, repositoryName),
			zap.String(passNameLogFieldNameConstant, cleanupPass.Name()),
			zap.Int(changedFileCountLogFieldNameConstant, len(passResult.ChangedFiles)),
			zap.Bool(needsReviewLogFieldNameConstant, passResult.NeedsReview))
	}
	return nil
}

func isRepositoryExcluded(repositoryName string, excludedRepositoryNames []string) bool {
	for _, excludedRepositoryName := range excludedRepositoryNames {
		if repositoryName == excludedRepositoryName {
			return true
		}
	}
	return false
}

func resolveLogger(candidateLogger *zap.Logger) *zap.Logger {
	if candidateLogger != nil {
		return candidateLogger
	}
	return zap.NewNop()
}
