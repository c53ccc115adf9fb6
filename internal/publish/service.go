package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gardenerhq/gardener/internal/hosting"
	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	budgetNotConfiguredMessageConstant       = "publish service requires a push budget"
	governorNotConfiguredMessageConstant     = "publish service requires a rate governor"
	pullRequestsNotConfiguredMessageConstant = "publish service requires a pull request creator"
	issuesNotConfiguredMessageConstant       = "publish service requires an issue editor"
	repositoryHandleMissingMessageConstant   = "working repository carries no source-control handle"
	publishFailureTemplateConstant           = "%s failed for repository %s in %s: %v"
	pushOperationNameConstant                = "push"
	pullRequestOperationNameConstant         = "pull request creation"
	issueOperationNameConstant               = "issue update"
	defaultWorkingBranchNameConstant         = "auto-cleanup"
	defaultBranchNameConstant                = "master"
	defaultPullRequestTitleConstant          = "Automatic cleanup changes"
	defaultPullRequestLabelConstant          = "autogenerated"
	defaultPullRequestDescriptionConstant    = "This change was prepared by the automated repository gardener."
	pushDeniedDebugMessageConstant           = "Push denied by budget"
	pushSucceededDebugMessageConstant        = "Pushed repository changes"
	pullRequestOpenedDebugMessageConstant    = "Opened pull request for review"
	repositoryNameLogFieldNameConstant       = "repository"
	targetBranchLogFieldNameConstant         = "target_branch"
	pullRequestNumberLogFieldNameConstant    = "pull_request_number"
)

// ErrBudgetNotConfigured reports service construction without a budget.
var ErrBudgetNotConfigured = errors.New(budgetNotConfiguredMessageConstant)

// ErrGovernorNotConfigured reports service construction without a governor.
var ErrGovernorNotConfigured = errors.New(governorNotConfiguredMessageConstant)

// ErrPullRequestsNotConfigured reports a missing pull request creator.
var ErrPullRequestsNotConfigured = errors.New(pullRequestsNotConfiguredMessageConstant)

// ErrIssuesNotConfigured reports a missing issue editor.
var ErrIssuesNotConfigured = errors.New(issuesNotConfiguredMessageConstant)

// ErrRepositoryHandleMissing reports a working repository without a handle.
var ErrRepositoryHandleMissing = errors.New(repositoryHandleMissingMessageConstant)

// PushBudget grants or denies push attempts for the whole run.
type PushBudget interface {
	TryConsume() bool
}

// RateGovernor spaces remote operations by the requested delay.
type RateGovernor interface {
	Wait(executionContext context.Context, requestedDelay time.Duration) error
}

// PullRequestCreator opens pull requests on the hosting service.
type PullRequestCreator interface {
	CreatePullRequest(executionContext context.Context, ownerName string, repositoryName string, details hosting.PullRequestDetails) (hosting.PullRequestReference, error)
}

// IssueEditor updates the issue behind a pull request.
type IssueEditor interface {
	EditIssue(executionContext context.Context, ownerName string, repositoryName string, issueNumber int, changes hosting.IssueChanges) error
}

// PublishFailure identifies the repository and remote operation behind a
// publishing error.
type PublishFailure struct {
	RepositoryName      string
	RepositoryDirectory string
	Operation           string
	Cause               error
}

// Error describes the publish failure.
func (failure *PublishFailure) Error() string {
	return fmt.Sprintf(publishFailureTemplateConstant, failure.Operation, failure.RepositoryName, failure.RepositoryDirectory, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure *PublishFailure) Unwrap() error {
	return failure.Cause
}

// Dependencies enumerates the collaborators required by the publish service.
type Dependencies struct {
	Budget       PushBudget
	Governor     RateGovernor
	PullRequests PullRequestCreator
	Issues       IssueEditor
	Logger       *zap.Logger
}

// Options configures how repository changes are published.
type Options struct {
	WorkingBranchName      string
	DefaultBranchName      string
	PullRequestTitle       string
	PullRequestDescription string
	PullRequestLabel       string
	ReviewerLogin          string
	PushDelay              time.Duration
	PullRequestDelay       time.Duration
}

func (options Options) normalized() Options {
	normalizedOptions := options
	if len(normalizedOptions.WorkingBranchName) == 0 {
		normalizedOptions.WorkingBranchName = defaultWorkingBranchNameConstant
	}
	if len(normalizedOptions.DefaultBranchName) == 0 {
		normalizedOptions.DefaultBranchName = defaultBranchNameConstant
	}
	if len(normalizedOptions.PullRequestTitle) == 0 {
		normalizedOptions.PullRequestTitle = defaultPullRequestTitleConstant
	}
	if len(normalizedOptions.PullRequestDescription) == 0 {
		normalizedOptions.PullRequestDescription = defaultPullRequestDescriptionConstant
	}
	if len(normalizedOptions.PullRequestLabel) == 0 {
		normalizedOptions.PullRequestLabel = defaultPullRequestLabelConstant
	}
	return normalizedOptions
}

// Service runs the publish decision pipeline for one repository at a time.
type Service struct {
	budget       PushBudget
	governor     RateGovernor
	pullRequests PullRequestCreator
	issues       IssueEditor
	logger       *zap.Logger
}

// NewService validates the dependencies and builds a publish service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Budget == nil {
		return nil, ErrBudgetNotConfigured
	}
	if dependencies.Governor == nil {
		return nil, ErrGovernorNotConfigured
	}
	if dependencies.PullRequests == nil {
		return nil, ErrPullRequestsNotConfigured
	}
	if dependencies.Issues == nil {
		return nil, ErrIssuesNotConfigured
	}
	return &Service{
		budget:       dependencies.Budget,
		governor:     dependencies.Governor,
		pullRequests: dependencies.PullRequests,
		issues:       dependencies.Issues,
		logger:       resolveLogger(dependencies.Logger),
	}, nil
}

// PublishRepository pushes the repository's committed changes when it is
// dirty and the budget grants the attempt. Reviewed repositories push their
// working branch under its own name and receive a labeled, assigned pull
// request; all other repositories push straight to the default branch. The
// final outcome is recorded on the repository exactly once.
func (service *Service) PublishRepository(executionContext context.Context, repository *workset.WorkingRepository, options Options) error {
	if !repository.Dirty {
		return nil
	}
	publishOptions := options.normalized()
	repositoryName := repository.Descriptor.Name

	if !service.budget.TryConsume() {
		service.logger.Debug(pushDeniedDebugMessageConstant,
			zap.String(repositoryNameLogFieldNameConstant, repositoryName))
		return repository.RecordPushOutcome(workset.PushOutcomeDenied)
	}

	if repository.Handle == nil {
		return service.failPublishing(repository, pushOperationNameConstant, ErrRepositoryHandleMissing)
	}

	targetBranchName := publishOptions.DefaultBranchName
	if repository.NeedsReview {
		targetBranchName = publishOptions.WorkingBranchName
	}

	waitError := service.governor.Wait(executionContext, publishOptions.PushDelay)
	if waitError != nil {
		return service.failPublishing(repository, pushOperationNameConstant, waitError)
	}
	pushError := repository.Handle.PushBranch(executionContext, publishOptions.WorkingBranchName, targetBranchName)
	if pushError != nil {
		return service.failPublishing(repository, pushOperationNameConstant, pushError)
	}
	service.logger.Debug(pushSucceededDebugMessageConstant,
		zap.String(repositoryNameLogFieldNameConstant, repositoryName),
		zap.String(targetBranchLogFieldNameConstant, targetBranchName))

	if repository.NeedsReview {
		reviewError := service.requestReview(executionContext, repository, publishOptions)
		if reviewError != nil {
			return reviewError
		}
	}
	return repository.RecordPushOutcome(workset.PushOutcomeSucceeded)
}

func (service *Service) requestReview(executionContext context.Context, repository *workset.WorkingRepository, publishOptions Options) error {
	descriptor := repository.Descriptor

	waitError := service.governor.Wait(executionContext, publishOptions.PullRequestDelay)
	if waitError != nil {
		return service.failPublishing(repository, pullRequestOperationNameConstant, waitError)
	}
	pullRequestDetails := hosting.PullRequestDetails{
		Title:        publishOptions.PullRequestTitle,
		Description:  publishOptions.PullRequestDescription,
		SourceBranch: publishOptions.WorkingBranchName,
		TargetBranch: publishOptions.DefaultBranchName,
	}
	pullRequestReference, createError := service.pullRequests.CreatePullRequest(executionContext, descriptor.Owner, descriptor.Name, pullRequestDetails)
	if createError != nil {
		return service.failPublishing(repository, pullRequestOperationNameConstant, createError)
	}
	service.logger.Debug(pullRequestOpenedDebugMessageConstant,
		zap.String(repositoryNameLogFieldNameConstant, descriptor.Name),
		zap.Int(pullRequestNumberLogFieldNameConstant, pullRequestReference.Number))

	waitError = service.governor.Wait(executionContext, publishOptions.PullRequestDelay)
	if waitError != nil {
		return service.failPublishing(repository, issueOperationNameConstant, waitError)
	}
	issueChanges := hosting.IssueChanges{Labels: []string{publishOptions.PullRequestLabel}}
	if len(publishOptions.ReviewerLogin) > 0 {
		issueChanges.AssigneeLogins = []string{publishOptions.ReviewerLogin}
	}
	editError := service.issues.EditIssue(executionContext, descriptor.Owner, descriptor.Name, pullRequestReference.Number, issueChanges)
	if editError != nil {
		return service.failPublishing(repository, issueOperationNameConstant, editError)
	}
	return nil
}

func (service *Service) failPublishing(repository *workset.WorkingRepository, operationName string, cause error) error {
	publishFailure := &PublishFailure{
		RepositoryName:      repository.Descriptor.Name,
		RepositoryDirectory: repository.Directory,
		Operation:           operationName,
		Cause:               cause,
	}
	recordError := repository.RecordPushOutcome(workset.PushOutcomeFailed)
	if recordError != nil {
		return errors.Join(publishFailure, recordError)
	}
	return publishFailure
}

func resolveLogger(candidateLogger *zap.Logger) *zap.Logger {
	if candidateLogger != nil {
		return candidateLogger
	}
	return zap.NewNop()
}
