package workset

import (
	"context"
	"errors"
	"fmt"
)

const (
	pushOutcomeUnattemptedValueConstant       = "unattempted"
	pushOutcomeDeniedValueConstant            = "denied"
	pushOutcomeSucceededValueConstant         = "succeeded"
	pushOutcomeFailedValueConstant            = "failed"
	pushOutcomeNotTerminalMessageConstant     = "push outcome is not a terminal state"
	pushOutcomeAlreadyRecordedMessageConstant = "push outcome already recorded"
	recordOutcomeInvalidTemplateConstant      = "%w: %q"
	recordOutcomeConflictTemplateConstant     = "%w: %s already %s"
)

// PushOutcome describes the publish state of a working repository.
type PushOutcome string

// Push outcome enumerations. A repository starts unattempted and moves to
// exactly one terminal state during publish.
const (
	PushOutcomeUnattempted PushOutcome = PushOutcome(pushOutcomeUnattemptedValueConstant)
	PushOutcomeDenied      PushOutcome = PushOutcome(pushOutcomeDeniedValueConstant)
	PushOutcomeSucceeded   PushOutcome = PushOutcome(pushOutcomeSucceededValueConstant)
	PushOutcomeFailed      PushOutcome = PushOutcome(pushOutcomeFailedValueConstant)
)

// ErrPushOutcomeNotTerminal reports an attempt to record the unattempted state.
var ErrPushOutcomeNotTerminal = errors.New(pushOutcomeNotTerminalMessageConstant)

// ErrPushOutcomeAlreadyRecorded reports a second outcome for the same repository.
var ErrPushOutcomeAlreadyRecorded = errors.New(pushOutcomeAlreadyRecordedMessageConstant)

// RepositoryDescriptor identifies a remote repository selected for the run.
type RepositoryDescriptor struct {
	Name     string
	Owner    string
	CloneURL string
}

// FullName renders the descriptor as owner/name.
func (descriptor RepositoryDescriptor) FullName() string {
	return descriptor.Owner + "/" + descriptor.Name
}

// RepositoryHandle exposes the local source-control operations the batch
// pipeline performs on a working copy.
type RepositoryHandle interface {
	CreateBranchFromHead(executionContext context.Context, branchName string) error
	CommitChanges(executionContext context.Context, commitMessage string) error
	PushBranch(executionContext context.Context, sourceBranchName string, targetBranchName string) error
}

// WorkingRepository pairs a descriptor with its local working copy and the
// mutable state the pipeline stages attach to it.
type WorkingRepository struct {
	Descriptor  RepositoryDescriptor
	Directory   string
	Handle      RepositoryHandle
	Metadata    *AnalysisMetadata
	Dirty       bool
	NeedsReview bool

	pushOutcome PushOutcome
}

// PushOutcome returns the recorded publish state, defaulting to unattempted.
func (repository *WorkingRepository) PushOutcome() PushOutcome {
	if len(repository.pushOutcome) == 0 {
		return PushOutcomeUnattempted
	}
	return repository.pushOutcome
}

// RecordPushOutcome stores a terminal publish state exactly once.
func (repository *WorkingRepository) RecordPushOutcome(outcome PushOutcome) error {
	switch outcome {
	case PushOutcomeDenied, PushOutcomeSucceeded, PushOutcomeFailed:
	default:
		return fmt.Errorf(recordOutcomeInvalidTemplateConstant, ErrPushOutcomeNotTerminal, string(outcome))
	}

	if len(repository.pushOutcome) > 0 && repository.pushOutcome != PushOutcomeUnattempted {
		return fmt.Errorf(recordOutcomeConflictTemplateConstant, ErrPushOutcomeAlreadyRecorded, repository.Descriptor.FullName(), string(repository.pushOutcome))
	}

	repository.pushOutcome = outcome
	return nil
}
