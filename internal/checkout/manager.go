package checkout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	workingDirectoryPermissionsConstant    = 0o755
	providerNotConfiguredMessageConstant   = "working copy provider not configured"
	workingDirectoryMissingMessageConstant = "working directory path not configured"
	checkoutFailureTemplateConstant        = "checkout %s: %v"
	resetWorkingDirectoryTemplateConstant  = "reset working directory %s: %w"
	openingExistingCopyMessageConstant     = "opening existing working copy"
	cloningRepositoryMessageConstant       = "cloning repository"
	repositoryFieldNameConstant            = "repository"
	directoryFieldNameConstant             = "directory"
)

// ErrProviderNotConfigured reports a manager built without a provider.
var ErrProviderNotConfigured = errors.New(providerNotConfiguredMessageConstant)

// ErrWorkingDirectoryMissing reports options without a working directory.
var ErrWorkingDirectoryMissing = errors.New(workingDirectoryMissingMessageConstant)

// CheckoutFailure describes one repository that could not be materialized.
type CheckoutFailure struct {
	RepositoryName string
	CloneURL       string
	Cause          error
}

// Error renders the failed repository with its cause.
func (checkoutFailure *CheckoutFailure) Error() string {
	return fmt.Sprintf(checkoutFailureTemplateConstant, checkoutFailure.RepositoryName, checkoutFailure.Cause)
}

// Unwrap exposes the underlying failure.
func (checkoutFailure *CheckoutFailure) Unwrap() error {
	return checkoutFailure.Cause
}

// Options describe one checkout pass.
type Options struct {
	WorkingDirectoryPath string
	CloneDelay           time.Duration
}

// Manager clones or reopens every discovered repository.
type Manager struct {
	workingCopies WorkingCopyProvider
	governor      RateGovernor
	fileSystem    FileSystem
	logger        *zap.Logger
}

// NewManager validates dependencies and constructs a checkout manager.
func NewManager(dependencies Dependencies) (*Manager, error) {
	if dependencies.WorkingCopies == nil {
		return nil, ErrProviderNotConfigured
	}

	resolvedDependencies := resolveDependencies(dependencies)
	return &Manager{
		workingCopies: resolvedDependencies.WorkingCopies,
		governor:      resolvedDependencies.Governor,
		fileSystem:    resolvedDependencies.FileSystem,
		logger:        resolvedDependencies.Logger,
	}, nil
}

// PrepareWorkingDirectory deletes and recreates the run's working directory
// so every run starts from fresh clones.
func (manager *Manager) PrepareWorkingDirectory(options Options) error {
	if len(options.WorkingDirectoryPath) == 0 {
		return ErrWorkingDirectoryMissing
	}

	if removeError := manager.fileSystem.RemoveAll(options.WorkingDirectoryPath); removeError != nil {
		return fmt.Errorf(resetWorkingDirectoryTemplateConstant, options.WorkingDirectoryPath, removeError)
	}
	if createError := manager.fileSystem.MkdirAll(options.WorkingDirectoryPath, workingDirectoryPermissionsConstant); createError != nil {
		return fmt.Errorf(resetWorkingDirectoryTemplateConstant, options.WorkingDirectoryPath, createError)
	}

	return nil
}

// CheckoutRepositories materializes working copies concurrently. The returned
// slice holds every successfully produced repository in descriptor order even
// when the returned error is non-nil, so callers can preserve partial
// progress.
func (manager *Manager) CheckoutRepositories(executionContext context.Context, descriptors []workset.RepositoryDescriptor, options Options) ([]*workset.WorkingRepository, error) {
	if len(options.WorkingDirectoryPath) == 0 {
		return nil, ErrWorkingDirectoryMissing
	}

	checkoutSlots := make([]*workset.WorkingRepository, len(descriptors))

	workerGroup, groupContext := errgroup.WithContext(executionContext)
	for descriptorIndex, descriptor := range descriptors {
		descriptorIndex, descriptor := descriptorIndex, descriptor
		workerGroup.Go(func() error {
			repositoryDirectory := filepath.Join(options.WorkingDirectoryPath, descriptor.Name)

			repositoryHandle, materializeError := manager.materializeWorkingCopy(groupContext, descriptor, repositoryDirectory, options)
			if materializeError != nil {
				return &CheckoutFailure{RepositoryName: descriptor.Name, CloneURL: descriptor.CloneURL, Cause: materializeError}
			}

			checkoutSlots[descriptorIndex] = &workset.WorkingRepository{
				Descriptor: descriptor,
				Directory:  repositoryDirectory,
				Handle:     repositoryHandle,
			}
			return nil
		})
	}

	waitError := workerGroup.Wait()

	producedRepositories := make([]*workset.WorkingRepository, 0, len(descriptors))
	for _, checkedOutRepository := range checkoutSlots {
		if checkedOutRepository != nil {
			producedRepositories = append(producedRepositories, checkedOutRepository)
		}
	}

	return producedRepositories, waitError
}

func (manager *Manager) materializeWorkingCopy(executionContext context.Context, descriptor workset.RepositoryDescriptor, repositoryDirectory string, options Options) (workset.RepositoryHandle, error) {
	if _, statError := manager.fileSystem.Stat(repositoryDirectory); statError == nil {
		manager.logger.Debug(
			openingExistingCopyMessageConstant,
			zap.String(repositoryFieldNameConstant, descriptor.Name),
			zap.String(directoryFieldNameConstant, repositoryDirectory),
		)
		return manager.workingCopies.OpenRepository(repositoryDirectory)
	}

	if waitError := manager.governor.Wait(executionContext, options.CloneDelay); waitError != nil {
		return nil, waitError
	}

	manager.logger.Debug(
		cloningRepositoryMessageConstant,
		zap.String(repositoryFieldNameConstant, descriptor.Name),
		zap.String(directoryFieldNameConstant, repositoryDirectory),
	)
	return manager.workingCopies.CloneRepository(executionContext, descriptor.CloneURL, repositoryDirectory)
}
