package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	originRemoteNameConstant          = "origin"
	automationAuthorNameConstant      = "gardener"
	automationAuthorEmailConstant     = "gardener-bot@users.noreply.github.com"
	branchRefSpecTemplateConstant     = "refs/heads/%s:refs/heads/%s"
	createBranchErrorTemplateConstant = "create branch %s in %s: %w"
	commitErrorTemplateConstant       = "commit changes in %s: %w"
	pushErrorTemplateConstant         = "push %s to %s in %s: %w"
)

// Repository is a handle over one local working copy. It satisfies the
// pipeline's repository operations through go-git.
type Repository struct {
	gitRepository *gogit.Repository
	directory     string
	credentials   RepositoryCredentials
}

func newRepository(gitRepository *gogit.Repository, repositoryDirectory string, credentials RepositoryCredentials) *Repository {
	return &Repository{gitRepository: gitRepository, directory: repositoryDirectory, credentials: credentials}
}

// Directory returns the working copy location on disk.
func (repository *Repository) Directory() string {
	return repository.directory
}

// CreateBranchFromHead checks out a branch rooted at the current head commit,
// creating it when absent and reusing it when the name already exists.
func (repository *Repository) CreateBranchFromHead(executionContext context.Context, branchName string) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}

	headReference, headError := repository.gitRepository.Head()
	if headError != nil {
		return fmt.Errorf(createBranchErrorTemplateConstant, branchName, repository.directory, headError)
	}

	workingTree, worktreeError := repository.gitRepository.Worktree()
	if worktreeError != nil {
		return fmt.Errorf(createBranchErrorTemplateConstant, branchName, repository.directory, worktreeError)
	}

	branchReferenceName := plumbing.NewBranchReferenceName(branchName)
	checkoutOptions := &gogit.CheckoutOptions{Branch: branchReferenceName}

	_, referenceLookupError := repository.gitRepository.Reference(branchReferenceName, true)
	if errors.Is(referenceLookupError, plumbing.ErrReferenceNotFound) {
		checkoutOptions.Create = true
		checkoutOptions.Hash = headReference.Hash()
	} else if referenceLookupError != nil {
		return fmt.Errorf(createBranchErrorTemplateConstant, branchName, repository.directory, referenceLookupError)
	}

	if checkoutError := workingTree.Checkout(checkoutOptions); checkoutError != nil {
		return fmt.Errorf(createBranchErrorTemplateConstant, branchName, repository.directory, checkoutError)
	}

	return nil
}

// CommitChanges stages every pending change and commits it with the provided
// message under the automation author.
func (repository *Repository) CommitChanges(executionContext context.Context, commitMessage string) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}

	workingTree, worktreeError := repository.gitRepository.Worktree()
	if worktreeError != nil {
		return fmt.Errorf(commitErrorTemplateConstant, repository.directory, worktreeError)
	}

	if addError := workingTree.AddWithOptions(&gogit.AddOptions{All: true}); addError != nil {
		return fmt.Errorf(commitErrorTemplateConstant, repository.directory, addError)
	}

	commitOptions := &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  automationAuthorNameConstant,
			Email: automationAuthorEmailConstant,
			When:  time.Now(),
		},
	}

	if _, commitError := workingTree.Commit(commitMessage, commitOptions); commitError != nil {
		return fmt.Errorf(commitErrorTemplateConstant, repository.directory, commitError)
	}

	return nil
}

// PushBranch publishes the local source branch to the remote target branch.
// A remote that is already up to date counts as success.
func (repository *Repository) PushBranch(executionContext context.Context, sourceBranchName string, targetBranchName string) error {
	pushRefSpec := gitconfig.RefSpec(fmt.Sprintf(branchRefSpecTemplateConstant, sourceBranchName, targetBranchName))

	pushOptions := &gogit.PushOptions{
		RemoteName: originRemoteNameConstant,
		RefSpecs:   []gitconfig.RefSpec{pushRefSpec},
	}
	if len(repository.credentials.BearerToken) > 0 {
		pushOptions.Auth = &githttp.BasicAuth{Username: pushCredentialUsernameConstant, Password: repository.credentials.BearerToken}
	}

	pushError := repository.gitRepository.PushContext(executionContext, pushOptions)
	if pushError != nil && !errors.Is(pushError, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf(pushErrorTemplateConstant, sourceBranchName, targetBranchName, repository.directory, pushError)
	}

	return nil
}
