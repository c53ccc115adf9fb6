package hosting

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	operationListOrganizationRepositoriesConstant = "list organization repositories"
	operationListUserRepositoriesConstant         = "list user repositories"
	operationFetchAuthenticatedUserConstant       = "fetch authenticated user"
	operationCreatePullRequestConstant            = "create pull request"
	operationEditIssueConstant                    = "edit issue"
	authenticatedUserTargetConstant               = "current token"
	issueTargetTemplateConstant                   = "%s/%s#%d"
	repositoryTargetTemplateConstant              = "%s/%s"
	baseAddressParseErrorTemplateConstant         = "invalid base address %s: %w"
	trailingSlashConstant                         = "/"
)

// ClientConfiguration describes how to reach the hosting service.
type ClientConfiguration struct {
	// HTTPClient may carry a caching transport. Nil selects http.DefaultClient.
	HTTPClient *http.Client
	// BearerToken authenticates every request.
	BearerToken string
	// BaseAddress overrides the public API endpoint, primarily for tests.
	BaseAddress string
}

// Client wraps the go-github SDK behind the capability methods the batch
// pipeline consumes.
type Client struct {
	githubClient *github.Client
}

// NewClient validates the configuration and builds an authenticated client.
func NewClient(configuration ClientConfiguration) (*Client, error) {
	trimmedToken := strings.TrimSpace(configuration.BearerToken)
	if len(trimmedToken) == 0 {
		return nil, ErrBearerTokenMissing
	}

	githubClient := github.NewClient(configuration.HTTPClient).WithAuthToken(trimmedToken)

	if len(configuration.BaseAddress) > 0 {
		normalizedAddress := configuration.BaseAddress
		if !strings.HasSuffix(normalizedAddress, trailingSlashConstant) {
			normalizedAddress += trailingSlashConstant
		}
		parsedBaseURL, parseError := url.Parse(normalizedAddress)
		if parseError != nil {
			return nil, fmt.Errorf(baseAddressParseErrorTemplateConstant, configuration.BaseAddress, parseError)
		}
		githubClient.BaseURL = parsedBaseURL
	}

	return &Client{githubClient: githubClient}, nil
}

// ListOrganizationRepositories returns one page of repositories owned by an
// organization in the order the service reports them.
func (client *Client) ListOrganizationRepositories(executionContext context.Context, organizationName string, pageNumber int, pageSize int) ([]workset.RepositoryDescriptor, error) {
	listOptions := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{Page: pageNumber, PerPage: pageSize},
	}

	repositories, _, listError := client.githubClient.Repositories.ListByOrg(executionContext, organizationName, listOptions)
	if listError != nil {
		return nil, &OperationError{Operation: operationListOrganizationRepositoriesConstant, Target: organizationName, Cause: listError}
	}

	return mapRepositoryDescriptors(repositories), nil
}

// ListUserRepositories returns one page of repositories owned by a user in
// the order the service reports them.
func (client *Client) ListUserRepositories(executionContext context.Context, userLogin string, pageNumber int, pageSize int) ([]workset.RepositoryDescriptor, error) {
	listOptions := &github.RepositoryListByUserOptions{
		ListOptions: github.ListOptions{Page: pageNumber, PerPage: pageSize},
	}

	repositories, _, listError := client.githubClient.Repositories.ListByUser(executionContext, userLogin, listOptions)
	if listError != nil {
		return nil, &OperationError{Operation: operationListUserRepositoriesConstant, Target: userLogin, Cause: listError}
	}

	return mapRepositoryDescriptors(repositories), nil
}

// FetchAuthenticatedUserLogin resolves the login behind the configured token.
func (client *Client) FetchAuthenticatedUserLogin(executionContext context.Context) (string, error) {
	authenticatedUser, _, fetchError := client.githubClient.Users.Get(executionContext, "")
	if fetchError != nil {
		return "", &OperationError{Operation: operationFetchAuthenticatedUserConstant, Target: authenticatedUserTargetConstant, Cause: fetchError}
	}

	userLogin := authenticatedUser.GetLogin()
	if len(userLogin) == 0 {
		return "", &OperationError{Operation: operationFetchAuthenticatedUserConstant, Target: authenticatedUserTargetConstant, Cause: ErrAuthenticatedLoginEmpty}
	}

	return userLogin, nil
}

// CreatePullRequest opens a pull request and returns its reference.
func (client *Client) CreatePullRequest(executionContext context.Context, ownerLogin string, repositoryName string, details PullRequestDetails) (PullRequestReference, error) {
	newPullRequest := &github.NewPullRequest{
		Title: github.String(details.Title),
		Head:  github.String(details.SourceBranch),
		Base:  github.String(details.TargetBranch),
	}
	if len(details.Description) > 0 {
		newPullRequest.Body = github.String(details.Description)
	}

	createdPullRequest, _, createError := client.githubClient.PullRequests.Create(executionContext, ownerLogin, repositoryName, newPullRequest)
	if createError != nil {
		repositoryTarget := fmt.Sprintf(repositoryTargetTemplateConstant, ownerLogin, repositoryName)
		return PullRequestReference{}, &OperationError{Operation: operationCreatePullRequestConstant, Target: repositoryTarget, Cause: createError}
	}

	return PullRequestReference{Number: createdPullRequest.GetNumber(), URL: createdPullRequest.GetHTMLURL()}, nil
}

// EditIssue applies assignee and label changes to an issue or pull request.
func (client *Client) EditIssue(executionContext context.Context, ownerLogin string, repositoryName string, issueNumber int, changes IssueChanges) error {
	issueRequest := &github.IssueRequest{}
	if len(changes.AssigneeLogins) > 0 {
		assigneeLogins := append([]string{}, changes.AssigneeLogins...)
		issueRequest.Assignees = &assigneeLogins
	}
	if len(changes.Labels) > 0 {
		labels := append([]string{}, changes.Labels...)
		issueRequest.Labels = &labels
	}

	_, _, editError := client.githubClient.Issues.Edit(executionContext, ownerLogin, repositoryName, issueNumber, issueRequest)
	if editError != nil {
		issueTarget := fmt.Sprintf(issueTargetTemplateConstant, ownerLogin, repositoryName, issueNumber)
		return &OperationError{Operation: operationEditIssueConstant, Target: issueTarget, Cause: editError}
	}

	return nil
}

func mapRepositoryDescriptors(repositories []*github.Repository) []workset.RepositoryDescriptor {
	descriptors := make([]workset.RepositoryDescriptor, 0, len(repositories))
	for _, repository := range repositories {
		if repository == nil {
			continue
		}
		descriptors = append(descriptors, workset.RepositoryDescriptor{
			Name:     repository.GetName(),
			Owner:    repository.GetOwner().GetLogin(),
			CloneURL: repository.GetCloneURL(),
		})
	}
	return descriptors
}
