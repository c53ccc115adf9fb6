package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	pushCredentialUsernameConstant  = "x-access-token"
	cloneErrorTemplateConstant      = "clone %s into %s: %w"
	openErrorTemplateConstant       = "open repository %s: %w"
	cloneURLMissingMessageConstant  = "clone url is empty"
	directoryMissingMessageConstant = "repository directory is empty"
)

// ErrCloneURLMissing reports a clone request without a remote URL.
var ErrCloneURLMissing = errors.New(cloneURLMissingMessageConstant)

// ErrDirectoryMissing reports a repository operation without a directory.
var ErrDirectoryMissing = errors.New(directoryMissingMessageConstant)

// RepositoryCredentials carries the bearer token used for authenticated
// remote operations. An empty token leaves remote calls unauthenticated.
type RepositoryCredentials struct {
	BearerToken string
}

// RepositoryManager creates Repository handles bound to the run credentials.
type RepositoryManager struct {
	credentials RepositoryCredentials
}

// NewRepositoryManager constructs a manager for the provided credentials.
func NewRepositoryManager(credentials RepositoryCredentials) *RepositoryManager {
	return &RepositoryManager{credentials: credentials}
}

// CloneRepository clones the remote repository into the directory and returns
// a handle for subsequent operations.
func (manager *RepositoryManager) CloneRepository(executionContext context.Context, cloneURL string, repositoryDirectory string) (workset.RepositoryHandle, error) {
	trimmedCloneURL := strings.TrimSpace(cloneURL)
	if len(trimmedCloneURL) == 0 {
		return nil, ErrCloneURLMissing
	}
	if len(strings.TrimSpace(repositoryDirectory)) == 0 {
		return nil, ErrDirectoryMissing
	}

	cloneOptions := &gogit.CloneOptions{URL: trimmedCloneURL}
	if authMethod := manager.authMethod(); authMethod != nil {
		cloneOptions.Auth = authMethod
	}

	clonedRepository, cloneError := gogit.PlainCloneContext(executionContext, repositoryDirectory, false, cloneOptions)
	if cloneError != nil {
		return nil, fmt.Errorf(cloneErrorTemplateConstant, trimmedCloneURL, repositoryDirectory, cloneError)
	}

	return newRepository(clonedRepository, repositoryDirectory, manager.credentials), nil
}

// OpenRepository opens an existing working copy and returns its handle.
func (manager *RepositoryManager) OpenRepository(repositoryDirectory string) (workset.RepositoryHandle, error) {
	if len(strings.TrimSpace(repositoryDirectory)) == 0 {
		return nil, ErrDirectoryMissing
	}

	openedRepository, openError := gogit.PlainOpen(repositoryDirectory)
	if openError != nil {
		return nil, fmt.Errorf(openErrorTemplateConstant, repositoryDirectory, openError)
	}

	return newRepository(openedRepository, repositoryDirectory, manager.credentials), nil
}

func (manager *RepositoryManager) authMethod() *githttp.BasicAuth {
	if len(manager.credentials.BearerToken) == 0 {
		return nil
	}
	return &githttp.BasicAuth{Username: pushCredentialUsernameConstant, Password: manager.credentials.BearerToken}
}
