package discovery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	// DefaultPageSize is the fixed page size used against the hosting service.
	DefaultPageSize = 100

	listerNotConfiguredMessageConstant    = "repository lister not configured"
	organizationMissingMessageConstant    = "organization name not configured"
	rootOwnerMissingMessageConstant       = "root repository owner not configured"
	rootNameMissingMessageConstant        = "root repository name not configured"
	rootRepositoryNotFoundMessageConstant = "root repository not found"
	rootNotFoundTemplateConstant          = "%w: %s/%s"
	discoveryCompletedMessageConstant     = "repository discovery completed"
	discoveryPageFetchedMessageConstant   = "repository page fetched"
	repositoryCountFieldNameConstant      = "repository_count"
	pageNumberFieldNameConstant           = "page_number"
	pageSizeFieldNameConstant             = "page_size"
	organizationFieldNameConstant         = "organization"
)

// ErrListerNotConfigured reports a service constructed without a lister.
var ErrListerNotConfigured = errors.New(listerNotConfiguredMessageConstant)

// ErrOrganizationMissing reports options without an organization name.
var ErrOrganizationMissing = errors.New(organizationMissingMessageConstant)

// ErrRootOwnerMissing reports options without a root repository owner.
var ErrRootOwnerMissing = errors.New(rootOwnerMissingMessageConstant)

// ErrRootNameMissing reports options without a root repository name.
var ErrRootNameMissing = errors.New(rootNameMissingMessageConstant)

// ErrRootRepositoryNotFound reports an exhausted root owner listing.
var ErrRootRepositoryNotFound = errors.New(rootRepositoryNotFoundMessageConstant)

// RepositoryLister provides paged repository listings from the hosting
// service in the order the service reports them.
type RepositoryLister interface {
	ListOrganizationRepositories(executionContext context.Context, organizationName string, pageNumber int, pageSize int) ([]workset.RepositoryDescriptor, error)
	ListUserRepositories(executionContext context.Context, userLogin string, pageNumber int, pageSize int) ([]workset.RepositoryDescriptor, error)
}

// Dependencies bundles the collaborators required by the Service.
type Dependencies struct {
	Lister RepositoryLister
	Logger *zap.Logger
}

// Options describe one discovery pass.
type Options struct {
	OrganizationName    string
	RootRepositoryOwner string
	RootRepositoryName  string
	PageSize            int
}

// Service discovers the repositories participating in a run.
type Service struct {
	lister RepositoryLister
	logger *zap.Logger
}

// NewService validates dependencies and constructs a discovery service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Lister == nil {
		return nil, ErrListerNotConfigured
	}

	return &Service{lister: dependencies.Lister, logger: resolveLogger(dependencies.Logger)}, nil
}

// DiscoverRepositories returns the root repository followed by the
// organization's repositories. Listing pages are fetched until a short page
// signals the end, and repositories sharing a name keep their first
// occurrence.
func (service *Service) DiscoverRepositories(executionContext context.Context, options Options) ([]workset.RepositoryDescriptor, error) {
	validatedOptions, validationError := validateOptions(options)
	if validationError != nil {
		return nil, validationError
	}

	rootDescriptor, rootError := service.locateRootRepository(executionContext, validatedOptions)
	if rootError != nil {
		return nil, rootError
	}

	collectedDescriptors := []workset.RepositoryDescriptor{rootDescriptor}
	seenRepositoryNames := map[string]struct{}{rootDescriptor.Name: {}}

	pageNumber := 1
	for {
		pageDescriptors, listError := service.lister.ListOrganizationRepositories(executionContext, validatedOptions.OrganizationName, pageNumber, validatedOptions.PageSize)
		if listError != nil {
			return nil, listError
		}

		service.logger.Debug(
			discoveryPageFetchedMessageConstant,
			zap.String(organizationFieldNameConstant, validatedOptions.OrganizationName),
			zap.Int(pageNumberFieldNameConstant, pageNumber),
			zap.Int(pageSizeFieldNameConstant, len(pageDescriptors)),
		)

		for _, pageDescriptor := range pageDescriptors {
			if _, alreadySeen := seenRepositoryNames[pageDescriptor.Name]; alreadySeen {
				continue
			}
			seenRepositoryNames[pageDescriptor.Name] = struct{}{}
			collectedDescriptors = append(collectedDescriptors, pageDescriptor)
		}

		if len(pageDescriptors) < validatedOptions.PageSize {
			break
		}
		pageNumber++
	}

	service.logger.Info(discoveryCompletedMessageConstant, zap.Int(repositoryCountFieldNameConstant, len(collectedDescriptors)))

	return collectedDescriptors, nil
}

func (service *Service) locateRootRepository(executionContext context.Context, options Options) (workset.RepositoryDescriptor, error) {
	pageNumber := 1
	for {
		pageDescriptors, listError := service.lister.ListUserRepositories(executionContext, options.RootRepositoryOwner, pageNumber, options.PageSize)
		if listError != nil {
			return workset.RepositoryDescriptor{}, listError
		}

		for _, pageDescriptor := range pageDescriptors {
			if pageDescriptor.Name == options.RootRepositoryName {
				return pageDescriptor, nil
			}
		}

		if len(pageDescriptors) < options.PageSize {
			break
		}
		pageNumber++
	}

	return workset.RepositoryDescriptor{}, fmt.Errorf(rootNotFoundTemplateConstant, ErrRootRepositoryNotFound, options.RootRepositoryOwner, options.RootRepositoryName)
}

func validateOptions(options Options) (Options, error) {
	if len(options.OrganizationName) == 0 {
		return Options{}, ErrOrganizationMissing
	}
	if len(options.RootRepositoryOwner) == 0 {
		return Options{}, ErrRootOwnerMissing
	}
	if len(options.RootRepositoryName) == 0 {
		return Options{}, ErrRootNameMissing
	}
	if options.PageSize <= 0 {
		options.PageSize = DefaultPageSize
	}
	return options, nil
}

func resolveLogger(candidateLogger *zap.Logger) *zap.Logger {
	if candidateLogger != nil {
		return candidateLogger
	}
	return zap.NewNop()
}
