package hosting

// PullRequestDetails describes a pull request to open against a repository.
type PullRequestDetails struct {
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
}

// PullRequestReference identifies a pull request created by the batch.
type PullRequestReference struct {
	Number int
	URL    string
}

// IssueChanges captures the mutations applied to an issue or pull request
// after creation.
type IssueChanges struct {
	AssigneeLogins []string
	Labels         []string
}
