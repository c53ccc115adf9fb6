package transform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gardenerhq/gardener/internal/transform"
	"github.com/gardenerhq/gardener/internal/workset"
)

type stubPass struct {
	passName     string
	result       transform.PassResult
	failure      error
	appliedCount int
}

func (pass *stubPass) Name() string {
	return pass.passName
}

func (pass *stubPass) Apply(executionContext context.Context, target transform.PassTarget) (transform.PassResult, error) {
	pass.appliedCount++
	if pass.failure != nil {
		return transform.PassResult{}, pass.failure
	}
	return pass.result, nil
}

type recordingHandle struct {
	commitMessages []string
	commitFailure  error
}

func (handle *recordingHandle) CreateBranchFromHead(context.Context, string) error {
	return nil
}

func (handle *recordingHandle) CommitChanges(executionContext context.Context, commitMessage string) error {
	if handle.commitFailure != nil {
		return handle.commitFailure
	}
	handle.commitMessages = append(handle.commitMessages, commitMessage)
	return nil
}

func (handle *recordingHandle) PushBranch(context.Context, string, string) error {
	return nil
}

func buildWorkingRepository(handle workset.RepositoryHandle) *workset.WorkingRepository {
	return &workset.WorkingRepository{
		Descriptor: workset.RepositoryDescriptor{Name: "alpha", Owner: "garden-org", CloneURL: "https://example.com/garden-org/alpha.git"},
		Directory:  "repos/alpha",
		Handle:     handle,
	}
}

func TestNewRunnerRequiresPasses(testInstance *testing.T) {
	_, runnerError := transform.NewRunner(transform.Dependencies{})
	require.ErrorIs(testInstance, runnerError, transform.ErrPipelineEmpty)
}

func TestTransformRepositoryCommitsChangedPassWithDefaultMessage(testInstance *testing.T) {
	handle := &recordingHandle{}
	repository := buildWorkingRepository(handle)
	changedPass := &stubPass{passName: "tidy", result: transform.PassResult{Changed: true, ChangedFiles: []string{"main.go"}}}

	runner, runnerError := transform.NewRunner(transform.Dependencies{Passes: []transform.Pass{changedPass}})
	require.NoError(testInstance, runnerError)

	require.NoError(testInstance, runner.TransformRepository(context.Background(), repository, transform.Options{}))
	require.Equal(testInstance, []string{"Automated cleanup: tidy"}, handle.commitMessages)
	require.True(testInstance, repository.Dirty)
	require.False(testInstance, repository.NeedsReview)
}

func TestTransformRepositoryUsesPassCommitMessageAndReviewFlag(testInstance *testing.T) {
	handle := &recordingHandle{}
	repository := buildWorkingRepository(handle)
	reviewPass := &stubPass{passName: "rewrite-imports", result: transform.PassResult{
		Changed:       true,
		NeedsReview:   true,
		CommitMessage: "Automated cleanup: rewrite import paths",
	}}

	runner, runnerError := transform.NewRunner(transform.Dependencies{Passes: []transform.Pass{reviewPass}})
	require.NoError(testInstance, runnerError)

	require.NoError(testInstance, runner.TransformRepository(context.Background(), repository, transform.Options{}))
	require.Equal(testInstance, []string{"Automated cleanup: rewrite import paths"}, handle.commitMessages)
	require.True(testInstance, repository.Dirty)
	require.True(testInstance, repository.NeedsReview)
}

func TestTransformRepositoryLeavesCleanRepositoryUntouched(testInstance *testing.T) {
	handle := &recordingHandle{}
	repository := buildWorkingRepository(handle)
	cleanPass := &stubPass{passName: "tidy"}

	runner, runnerError := transform.NewRunner(transform.Dependencies{Passes: []transform.Pass{cleanPass}})
	require.NoError(testInstance, runnerError)

	require.NoError(testInstance, runner.TransformRepository(context.Background(), repository, transform.Options{}))
	require.Equal(testInstance, 1, cleanPass.appliedCount)
	require.Empty(testInstance, handle.commitMessages)
	require.False(testInstance, repository.Dirty)
}

func TestTransformRepositorySkipsExcludedRepositories(testInstance *testing.T) {
	handle := &recordingHandle{}
	repository := buildWorkingRepository(handle)
	changedPass := &stubPass{passName: "tidy", result: transform.PassResult{Changed: true}}

	runner, runnerError := transform.NewRunner(transform.Dependencies{Passes: []transform.Pass{changedPass}})
	require.NoError(testInstance, runnerError)

	options := transform.Options{ExcludedRepositoryNames: []string{"alpha"}}
	require.NoError(testInstance, runner.TransformRepository(context.Background(), repository, options))
	require.Zero(testInstance, changedPass.appliedCount)
	require.Empty(testInstance, handle.commitMessages)
	require.False(testInstance, repository.Dirty)
}

func TestTransformRepositoryWrapsPassFailures(testInstance *testing.T) {
	repository := buildWorkingRepository(&recordingHandle{})
	passCause := errors.New("unreadable tree")
	failingPass := &stubPass{passName: "tidy", failure: passCause}

	runner, runnerError := transform.NewRunner(transform.Dependencies{Passes: []transform.Pass{failingPass}})
	require.NoError(testInstance, runnerError)

	transformError := runner.TransformRepository(context.Background(), repository, transform.Options{})
	require.ErrorIs(testInstance, transformError, passCause)

	var transformFailure *transform.TransformFailure
	require.ErrorAs(testInstance, transformError, &transformFailure)
	require.Equal(testInstance, "alpha", transformFailure.RepositoryName)
	require.Equal(testInstance, "repos/alpha", transformFailure.RepositoryDirectory)
	require.Equal(testInstance, "tidy", transformFailure.PassName)
}

func TestTransformRepositoryWrapsCommitFailures(testInstance *testing.T) {
	commitCause := errors.New("index locked")
	repository := buildWorkingRepository(&recordingHandle{commitFailure: commitCause})
	changedPass := &stubPass{passName: "tidy", result: transform.PassResult{Changed: true}}

	runner, runnerError := transform.NewRunner(transform.Dependencies{Passes: []transform.Pass{changedPass}})
	require.NoError(testInstance, runnerError)

	transformError := runner.TransformRepository(context.Background(), repository, transform.Options{})
	require.ErrorIs(testInstance, transformError, commitCause)

	var transformFailure *transform.TransformFailure
	require.ErrorAs(testInstance, transformError, &transformFailure)
	require.Equal(testInstance, "tidy", transformFailure.PassName)
	require.False(testInstance, repository.Dirty)
}

func TestTransformRepositoryRequiresHandle(testInstance *testing.T) {
	repository := buildWorkingRepository(nil)
	runner, runnerError := transform.NewRunner(transform.Dependencies{Passes: []transform.Pass{&stubPass{passName: "tidy"}}})
	require.NoError(testInstance, runnerError)

	transformError := runner.TransformRepository(context.Background(), repository, transform.Options{})
	require.ErrorIs(testInstance, transformError, transform.ErrRepositoryHandleMissing)
}

func TestTransformRepositoryRunsPassesInOrder(testInstance *testing.T) {
	handle := &recordingHandle{}
	repository := buildWorkingRepository(handle)
	firstPass := &stubPass{passName: "first", result: transform.PassResult{Changed: true}}
	secondPass := &stubPass{passName: "second"}

	runner, runnerError := transform.NewRunner(transform.Dependencies{Passes: []transform.Pass{firstPass, secondPass}})
	require.NoError(testInstance, runnerError)

	require.NoError(testInstance, runner.TransformRepository(context.Background(), repository, transform.Options{}))
	require.Equal(testInstance, 1, firstPass.appliedCount)
	require.Equal(testInstance, 1, secondPass.appliedCount)
	require.Equal(testInstance, []string{"Automated cleanup: first"}, handle.commitMessages)
}
