package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/gardenerhq/gardener/internal/analysis"
	"github.com/gardenerhq/gardener/internal/checkout"
	"github.com/gardenerhq/gardener/internal/discovery"
	"github.com/gardenerhq/gardener/internal/publish"
	"github.com/gardenerhq/gardener/internal/throttle"
	"github.com/gardenerhq/gardener/internal/transform"
	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	userFetcherNotConfiguredMessageConstant      = "batch engine requires an authenticated user fetcher"
	accumulatorNotConfiguredMessageConstant      = "batch run requires a repository accumulator"
	resolveReviewerErrorTemplateConstant         = "resolve reviewer login: %w"
	prepareWorkingDirectoryErrorTemplateConstant = "prepare working directory: %w"
	discoverRepositoriesErrorTemplateConstant    = "discover repositories: %w"
	checkoutRepositoriesErrorTemplateConstant    = "checkout repositories: %w"
	analyzeRepositoriesErrorTemplateConstant     = "analyze repositories: %w"
	repositoryFailureTemplateConstant            = "%s failed for repository %s in %s: %v"
	branchCreationStageNameConstant              = "branch creation"
	discoveredRepositoriesInfoMessageConstant    = "Discovered repositories"
	repositoryExcludedDebugMessageConstant       = "Repository excluded from cleanup"
	publishFailureToleratedWarnMessageConstant   = "Continuing after publish failure"
	runCompletedInfoMessageConstant              = "Batch run completed"
	repositoryCountLogFieldNameConstant          = "repository_count"
	repositoryLogFieldNameConstant               = "repository"
)

// ErrUserFetcherNotConfigured reports a missing authenticated user fetcher.
var ErrUserFetcherNotConfigured = errors.New(userFetcherNotConfiguredMessageConstant)

// ErrAccumulatorNotConfigured reports a run started without an accumulator.
var ErrAccumulatorNotConfigured = errors.New(accumulatorNotConfiguredMessageConstant)

// AuthenticatedUserFetcher resolves the login behind the run credentials. The
// login reviews pull requests when no reviewer is configured.
type AuthenticatedUserFetcher interface {
	FetchAuthenticatedUserLogin(executionContext context.Context) (string, error)
}

// RepositoryFailure reports a per-repository stage failure that halted the
// run before the cleanup pipeline took over.
type RepositoryFailure struct {
	Stage               string
	RepositoryName      string
	RepositoryDirectory string
	Cause               error
}

// Error renders the stage, repository identity, and cause.
func (failure *RepositoryFailure) Error() string {
	return fmt.Sprintf(repositoryFailureTemplateConstant, failure.Stage, failure.RepositoryName, failure.RepositoryDirectory, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure *RepositoryFailure) Unwrap() error {
	return failure.Cause
}

// Dependencies carries the collaborators the engine builds its phase services
// from. Clock, FileSystem, Observer, and Logger fall back to production
// defaults when nil.
type Dependencies struct {
	Lister        discovery.RepositoryLister
	Users         AuthenticatedUserFetcher
	WorkingCopies checkout.WorkingCopyProvider
	FileSystem    checkout.FileSystem
	Analyzer      analysis.Analyzer
	Passes        []transform.Pass
	PullRequests  publish.PullRequestCreator
	Issues        publish.IssueEditor
	Budget        publish.PushBudget
	Clock         throttle.Clock
	Observer      ProgressObserver
	Logger        *zap.Logger
}

// Engine drives one full batch run across every discovered repository.
type Engine struct {
	discoveryService *discovery.Service
	checkoutManager  *checkout.Manager
	analysisService  *analysis.Service
	transformRunner  *transform.Runner
	publishService   *publish.Service
	users            AuthenticatedUserFetcher
	observer         ProgressObserver
	logger           *zap.Logger
}

// NewEngine validates the collaborators and assembles the phase services. A
// single rate governor spaces clone, push, and pull-request traffic.
func NewEngine(dependencies Dependencies) (*Engine, error) {
	if dependencies.Users == nil {
		return nil, ErrUserFetcherNotConfigured
	}
	rateGovernor := throttle.NewRateGovernor(dependencies.Clock)
	discoveryService, discoveryError := discovery.NewService(discovery.Dependencies{
		Lister: dependencies.Lister,
		Logger: dependencies.Logger,
	})
	if discoveryError != nil {
		return nil, discoveryError
	}
	checkoutManager, checkoutError := checkout.NewManager(checkout.Dependencies{
		WorkingCopies: dependencies.WorkingCopies,
		Governor:      rateGovernor,
		FileSystem:    dependencies.FileSystem,
		Logger:        dependencies.Logger,
	})
	if checkoutError != nil {
		return nil, checkoutError
	}
	analysisService, analysisError := analysis.NewService(analysis.Dependencies{
		Analyzer: dependencies.Analyzer,
		Logger:   dependencies.Logger,
	})
	if analysisError != nil {
		return nil, analysisError
	}
	transformRunner, transformError := transform.NewRunner(transform.Dependencies{
		Passes: dependencies.Passes,
		Logger: dependencies.Logger,
	})
	if transformError != nil {
		return nil, transformError
	}
	publishService, publishError := publish.NewService(publish.Dependencies{
		Budget:       dependencies.Budget,
		Governor:     rateGovernor,
		PullRequests: dependencies.PullRequests,
		Issues:       dependencies.Issues,
		Logger:       dependencies.Logger,
	})
	if publishError != nil {
		return nil, publishError
	}
	return &Engine{
		discoveryService: discoveryService,
		checkoutManager:  checkoutManager,
		analysisService:  analysisService,
		transformRunner:  transformRunner,
		publishService:   publishService,
		users:            dependencies.Users,
		observer:         resolveObserver(dependencies.Observer),
		logger:           resolveEngineLogger(dependencies.Logger),
	}, nil
}

// Run sweeps the organization once. Checked-out repositories land in the
// accumulator before any failure propagates so callers can always report the
// partial outcome.
func (engine *Engine) Run(executionContext context.Context, configuration Configuration, accumulator *workset.Accumulator) error {
	if accumulator == nil {
		return ErrAccumulatorNotConfigured
	}
	runConfiguration := configuration.sanitize()

	reviewerLogin := runConfiguration.ReviewerLogin
	if len(reviewerLogin) == 0 {
		fetchedLogin, fetchError := engine.users.FetchAuthenticatedUserLogin(executionContext)
		if fetchError != nil {
			return fmt.Errorf(resolveReviewerErrorTemplateConstant, fetchError)
		}
		reviewerLogin = fetchedLogin
	}

	checkoutOptions := checkout.Options{
		WorkingDirectoryPath: runConfiguration.WorkingDirectory,
		CloneDelay:           runConfiguration.CloneDelay,
	}
	if prepareError := engine.checkoutManager.PrepareWorkingDirectory(checkoutOptions); prepareError != nil {
		return fmt.Errorf(prepareWorkingDirectoryErrorTemplateConstant, prepareError)
	}

	descriptors, discoveryError := engine.discoveryService.DiscoverRepositories(executionContext, discovery.Options{
		OrganizationName:    runConfiguration.OrganizationName,
		RootRepositoryOwner: runConfiguration.RootRepositoryOwner,
		RootRepositoryName:  runConfiguration.RootRepositoryName,
		PageSize:            runConfiguration.PageSize,
	})
	if discoveryError != nil {
		return fmt.Errorf(discoverRepositoriesErrorTemplateConstant, discoveryError)
	}
	engine.logger.Info(discoveredRepositoriesInfoMessageConstant, zap.Int(repositoryCountLogFieldNameConstant, len(descriptors)))
	engine.observer.BatchStarted(len(descriptors))

	repositories, checkoutError := engine.checkoutManager.CheckoutRepositories(executionContext, descriptors, checkoutOptions)
	accumulator.Append(repositories...)
	if checkoutError != nil {
		return fmt.Errorf(checkoutRepositoriesErrorTemplateConstant, checkoutError)
	}
	engine.observer.CheckoutCompleted(len(repositories))

	repositoryDirectories := make([]string, 0, len(repositories))
	for _, repository := range repositories {
		repositoryDirectories = append(repositoryDirectories, repository.Directory)
	}
	analysisMetadata, analysisError := engine.analysisService.AnalyzeRepositories(executionContext, repositoryDirectories, analysis.Options{Filter: runConfiguration.Analysis})
	if analysisError != nil {
		return fmt.Errorf(analyzeRepositoriesErrorTemplateConstant, analysisError)
	}
	for _, repository := range repositories {
		repository.Metadata = analysisMetadata
	}
	engine.observer.AnalysisCompleted(analysisMetadata.AnalyzedFileCount)

	orderedRepositories := make([]*workset.WorkingRepository, len(repositories))
	copy(orderedRepositories, repositories)
	sort.Slice(orderedRepositories, func(firstIndex int, secondIndex int) bool {
		return orderedRepositories[firstIndex].Directory < orderedRepositories[secondIndex].Directory
	})

	publishOptions := publish.Options{
		WorkingBranchName: runConfiguration.WorkingBranchName,
		DefaultBranchName: runConfiguration.DefaultBranchName,
		PullRequestTitle:  runConfiguration.PullRequestTitle,
		PullRequestLabel:  runConfiguration.PullRequestLabel,
		ReviewerLogin:     reviewerLogin,
		PushDelay:         runConfiguration.PushDelay,
		PullRequestDelay:  runConfiguration.PullRequestDelay,
	}

	for _, repository := range orderedRepositories {
		if isExcludedRepository(repository.Descriptor.Name, runConfiguration.ExcludedRepositories) {
			engine.logger.Debug(repositoryExcludedDebugMessageConstant, zap.String(repositoryLogFieldNameConstant, repository.Descriptor.Name))
			continue
		}

		branchError := repository.Handle.CreateBranchFromHead(executionContext, runConfiguration.WorkingBranchName)
		if branchError != nil {
			return &RepositoryFailure{
				Stage:               branchCreationStageNameConstant,
				RepositoryName:      repository.Descriptor.Name,
				RepositoryDirectory: repository.Directory,
				Cause:               branchError,
			}
		}

		transformError := engine.transformRunner.TransformRepository(executionContext, repository, transform.Options{})
		if transformError != nil {
			return transformError
		}
		engine.observer.RepositoryTransformed(repository.Descriptor.Name, repository.Dirty, repository.NeedsReview)

		publishError := engine.publishService.PublishRepository(executionContext, repository, publishOptions)
		engine.observer.RepositoryPublished(repository.Descriptor.Name, repository.PushOutcome())
		if publishError != nil {
			if runConfiguration.HaltOnPushFailure {
				return publishError
			}
			engine.logger.Warn(publishFailureToleratedWarnMessageConstant,
				zap.String(repositoryLogFieldNameConstant, repository.Descriptor.Name),
				zap.Error(publishError),
			)
		}
	}

	engine.logger.Info(runCompletedInfoMessageConstant, zap.Int(repositoryCountLogFieldNameConstant, len(repositories)))
	return nil
}

func isExcludedRepository(repositoryName string, excludedRepositoryNames []string) bool {
	for _, excludedRepositoryName := range excludedRepositoryNames {
		if repositoryName == excludedRepositoryName {
			return true
		}
	}
	return false
}

func resolveEngineLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
