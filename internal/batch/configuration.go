package batch

import (
	"strings"
	"time"

	"github.com/gardenerhq/gardener/internal/analysis"
	pathutils "github.com/gardenerhq/gardener/internal/utils/path"
)

var batchConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	maximumPushCountKeyConstant     = "max_changes"
	workingDirectoryKeyConstant     = "working_directory"
	tokenFileKeyConstant            = "token_file"
	cacheDatabaseKeyConstant        = "cache_database"
	organizationKeyConstant         = "organization"
	rootRepositoryOwnerKeyConstant  = "root_repository_owner"
	rootRepositoryNameKeyConstant   = "root_repository_name"
	pageSizeKeyConstant             = "page_size"
	workingBranchKeyConstant        = "working_branch"
	defaultBranchKeyConstant        = "default_branch"
	pullRequestTitleKeyConstant     = "pull_request_title"
	pullRequestLabelKeyConstant     = "pull_request_label"
	reviewerKeyConstant             = "reviewer"
	cloneDelayKeyConstant           = "clone_delay"
	pushDelayKeyConstant            = "push_delay"
	pullRequestDelayKeyConstant     = "pull_request_delay"
	haltOnPushFailureKeyConstant    = "halt_on_push_failure"
	pipelineFileKeyConstant         = "pipeline_file"
	excludedRepositoriesKeyConstant = "excluded_repositories"
	configurationKeySeparator       = "."

	defaultWorkingDirectoryConstant    = "repos"
	defaultTokenFileConstant           = "token"
	defaultCacheDatabaseConstant       = "gardener-cache.db"
	defaultOrganizationConstant        = "gardenerhq"
	defaultRootRepositoryOwnerConstant = "gardenerhq"
	defaultRootRepositoryNameConstant  = "garden-root"
	defaultPageSizeConstant            = 100
	defaultWorkingBranchConstant       = "auto-cleanup"
	defaultDefaultBranchConstant       = "master"
	defaultPullRequestTitleConstant    = "Automatic cleanup changes"
	defaultPullRequestLabelConstant    = "autogenerated"
	defaultCloneDelayConstant          = 250 * time.Millisecond
	defaultPushDelayConstant           = time.Second
	defaultPullRequestDelayConstant    = 5 * time.Second
	defaultHaltOnPushFailureConstant   = true
)

// Configuration captures the tunable settings of a batch run.
type Configuration struct {
	MaximumPushCount     int                          `mapstructure:"max_changes"`
	WorkingDirectory     string                       `mapstructure:"working_directory"`
	TokenFilePath        string                       `mapstructure:"token_file"`
	CacheDatabasePath    string                       `mapstructure:"cache_database"`
	OrganizationName     string                       `mapstructure:"organization"`
	RootRepositoryOwner  string                       `mapstructure:"root_repository_owner"`
	RootRepositoryName   string                       `mapstructure:"root_repository_name"`
	PageSize             int                          `mapstructure:"page_size"`
	WorkingBranchName    string                       `mapstructure:"working_branch"`
	DefaultBranchName    string                       `mapstructure:"default_branch"`
	PullRequestTitle     string                       `mapstructure:"pull_request_title"`
	PullRequestLabel     string                       `mapstructure:"pull_request_label"`
	ReviewerLogin        string                       `mapstructure:"reviewer"`
	CloneDelay           time.Duration                `mapstructure:"clone_delay"`
	PushDelay            time.Duration                `mapstructure:"push_delay"`
	PullRequestDelay     time.Duration                `mapstructure:"pull_request_delay"`
	HaltOnPushFailure    bool                         `mapstructure:"halt_on_push_failure"`
	PipelineFilePath     string                       `mapstructure:"pipeline_file"`
	ExcludedRepositories []string                     `mapstructure:"excluded_repositories"`
	Analysis             analysis.FilterConfiguration `mapstructure:"analysis"`
}

// DefaultConfiguration returns the settings a run uses without any overrides.
func DefaultConfiguration() Configuration {
	return Configuration{
		WorkingDirectory:    defaultWorkingDirectoryConstant,
		TokenFilePath:       defaultTokenFileConstant,
		CacheDatabasePath:   defaultCacheDatabaseConstant,
		OrganizationName:    defaultOrganizationConstant,
		RootRepositoryOwner: defaultRootRepositoryOwnerConstant,
		RootRepositoryName:  defaultRootRepositoryNameConstant,
		PageSize:            defaultPageSizeConstant,
		WorkingBranchName:   defaultWorkingBranchConstant,
		DefaultBranchName:   defaultDefaultBranchConstant,
		PullRequestTitle:    defaultPullRequestTitleConstant,
		PullRequestLabel:    defaultPullRequestLabelConstant,
		CloneDelay:          defaultCloneDelayConstant,
		PushDelay:           defaultPushDelayConstant,
		PullRequestDelay:    defaultPullRequestDelayConstant,
		HaltOnPushFailure:   defaultHaltOnPushFailureConstant,
	}
}

// DefaultConfigurationValues maps the default settings onto dotted
// configuration keys rooted at the provided key.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparator + maximumPushCountKeyConstant:     defaults.MaximumPushCount,
		rootKey + configurationKeySeparator + workingDirectoryKeyConstant:     defaults.WorkingDirectory,
		rootKey + configurationKeySeparator + tokenFileKeyConstant:            defaults.TokenFilePath,
		rootKey + configurationKeySeparator + cacheDatabaseKeyConstant:        defaults.CacheDatabasePath,
		rootKey + configurationKeySeparator + organizationKeyConstant:         defaults.OrganizationName,
		rootKey + configurationKeySeparator + rootRepositoryOwnerKeyConstant:  defaults.RootRepositoryOwner,
		rootKey + configurationKeySeparator + rootRepositoryNameKeyConstant:   defaults.RootRepositoryName,
		rootKey + configurationKeySeparator + pageSizeKeyConstant:             defaults.PageSize,
		rootKey + configurationKeySeparator + workingBranchKeyConstant:        defaults.WorkingBranchName,
		rootKey + configurationKeySeparator + defaultBranchKeyConstant:        defaults.DefaultBranchName,
		rootKey + configurationKeySeparator + pullRequestTitleKeyConstant:     defaults.PullRequestTitle,
		rootKey + configurationKeySeparator + pullRequestLabelKeyConstant:     defaults.PullRequestLabel,
		rootKey + configurationKeySeparator + reviewerKeyConstant:             defaults.ReviewerLogin,
		rootKey + configurationKeySeparator + cloneDelayKeyConstant:           defaults.CloneDelay,
		rootKey + configurationKeySeparator + pushDelayKeyConstant:            defaults.PushDelay,
		rootKey + configurationKeySeparator + pullRequestDelayKeyConstant:     defaults.PullRequestDelay,
		rootKey + configurationKeySeparator + haltOnPushFailureKeyConstant:    defaults.HaltOnPushFailure,
		rootKey + configurationKeySeparator + pipelineFileKeyConstant:         defaults.PipelineFilePath,
		rootKey + configurationKeySeparator + excludedRepositoriesKeyConstant: defaults.ExcludedRepositories,
	}
}

func (configuration Configuration) sanitize() Configuration {
	sanitized := configuration
	sanitized.WorkingDirectory = sanitizeFilesystemPath(configuration.WorkingDirectory)
	sanitized.TokenFilePath = sanitizeFilesystemPath(configuration.TokenFilePath)
	sanitized.CacheDatabasePath = sanitizeFilesystemPath(configuration.CacheDatabasePath)
	sanitized.OrganizationName = strings.TrimSpace(configuration.OrganizationName)
	sanitized.RootRepositoryOwner = strings.TrimSpace(configuration.RootRepositoryOwner)
	sanitized.RootRepositoryName = strings.TrimSpace(configuration.RootRepositoryName)
	sanitized.WorkingBranchName = strings.TrimSpace(configuration.WorkingBranchName)
	sanitized.DefaultBranchName = strings.TrimSpace(configuration.DefaultBranchName)
	sanitized.PullRequestTitle = strings.TrimSpace(configuration.PullRequestTitle)
	sanitized.PullRequestLabel = strings.TrimSpace(configuration.PullRequestLabel)
	sanitized.ReviewerLogin = strings.TrimSpace(configuration.ReviewerLogin)
	sanitized.PipelineFilePath = sanitizeFilesystemPath(configuration.PipelineFilePath)
	if sanitized.MaximumPushCount < 0 {
		sanitized.MaximumPushCount = 0
	}
	if sanitized.PageSize < 0 {
		sanitized.PageSize = 0
	}
	if sanitized.CloneDelay < 0 {
		sanitized.CloneDelay = 0
	}
	if sanitized.PushDelay < 0 {
		sanitized.PushDelay = 0
	}
	if sanitized.PullRequestDelay < 0 {
		sanitized.PullRequestDelay = 0
	}
	sanitized.ExcludedRepositories = sanitizeRepositoryNames(configuration.ExcludedRepositories)
	return sanitized
}

func sanitizeFilesystemPath(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return trimmedPath
	}
	return batchConfigurationHomeDirectoryExpander.Expand(trimmedPath)
}

func sanitizeRepositoryNames(repositoryNames []string) []string {
	sanitizedNames := make([]string, 0, len(repositoryNames))
	for _, repositoryName := range repositoryNames {
		trimmedName := strings.TrimSpace(repositoryName)
		if len(trimmedName) == 0 {
			continue
		}
		sanitizedNames = append(sanitizedNames, trimmedName)
	}
	return sanitizedNames
}
