package checkout_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gardenerhq/gardener/internal/checkout"
	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	testWorkingDirectoryNameConstant = "repos"
	testCloneDelayConstant           = 25 * time.Millisecond
)

type stubRepositoryHandle struct {
	repositoryName string
}

func (handle *stubRepositoryHandle) CreateBranchFromHead(context.Context, string) error {
	return nil
}

func (handle *stubRepositoryHandle) CommitChanges(context.Context, string) error {
	return nil
}

func (handle *stubRepositoryHandle) PushBranch(context.Context, string, string) error {
	return nil
}

type stubWorkingCopyProvider struct {
	stateMutex            sync.Mutex
	clonedDirectories     []string
	openedDirectories     []string
	failingRepositoryName string
}

func (provider *stubWorkingCopyProvider) CloneRepository(executionContext context.Context, cloneURL string, repositoryDirectory string) (workset.RepositoryHandle, error) {
	provider.stateMutex.Lock()
	defer provider.stateMutex.Unlock()

	repositoryName := filepath.Base(repositoryDirectory)
	if repositoryName == provider.failingRepositoryName {
		return nil, errors.New("clone refused")
	}

	provider.clonedDirectories = append(provider.clonedDirectories, repositoryDirectory)
	return &stubRepositoryHandle{repositoryName: repositoryName}, nil
}

func (provider *stubWorkingCopyProvider) OpenRepository(repositoryDirectory string) (workset.RepositoryHandle, error) {
	provider.stateMutex.Lock()
	defer provider.stateMutex.Unlock()

	provider.openedDirectories = append(provider.openedDirectories, repositoryDirectory)
	return &stubRepositoryHandle{repositoryName: filepath.Base(repositoryDirectory)}, nil
}

type countingGovernor struct {
	stateMutex sync.Mutex
	waitCount  int
	delays     []time.Duration
}

func (governor *countingGovernor) Wait(executionContext context.Context, requestedDelay time.Duration) error {
	governor.stateMutex.Lock()
	defer governor.stateMutex.Unlock()

	governor.waitCount++
	governor.delays = append(governor.delays, requestedDelay)
	return nil
}

type mapFileSystem struct {
	existingPaths map[string]struct{}
}

func (fileSystem *mapFileSystem) Stat(path string) (os.FileInfo, error) {
	if _, exists := fileSystem.existingPaths[path]; exists {
		return nil, nil
	}
	return nil, os.ErrNotExist
}

func (fileSystem *mapFileSystem) RemoveAll(path string) error {
	return nil
}

func (fileSystem *mapFileSystem) MkdirAll(path string, permissions os.FileMode) error {
	return nil
}

func testDescriptors() []workset.RepositoryDescriptor {
	return []workset.RepositoryDescriptor{
		{Name: "alpha", Owner: "garden-org", CloneURL: "https://example.com/garden-org/alpha.git"},
		{Name: "beta", Owner: "garden-org", CloneURL: "https://example.com/garden-org/beta.git"},
		{Name: "gamma", Owner: "garden-org", CloneURL: "https://example.com/garden-org/gamma.git"},
	}
}

func TestNewManagerRequiresProvider(testInstance *testing.T) {
	_, managerError := checkout.NewManager(checkout.Dependencies{})
	require.ErrorIs(testInstance, managerError, checkout.ErrProviderNotConfigured)
}

func TestCheckoutRepositoriesClonesInDescriptorOrder(testInstance *testing.T) {
	provider := &stubWorkingCopyProvider{}
	governor := &countingGovernor{}

	manager, managerError := checkout.NewManager(checkout.Dependencies{
		WorkingCopies: provider,
		Governor:      governor,
		FileSystem:    &mapFileSystem{existingPaths: map[string]struct{}{}},
	})
	require.NoError(testInstance, managerError)

	options := checkout.Options{WorkingDirectoryPath: testWorkingDirectoryNameConstant, CloneDelay: testCloneDelayConstant}
	repositories, checkoutError := manager.CheckoutRepositories(context.Background(), testDescriptors(), options)
	require.NoError(testInstance, checkoutError)
	require.Len(testInstance, repositories, 3)

	require.Equal(testInstance, "alpha", repositories[0].Descriptor.Name)
	require.Equal(testInstance, "beta", repositories[1].Descriptor.Name)
	require.Equal(testInstance, "gamma", repositories[2].Descriptor.Name)
	require.Equal(testInstance, filepath.Join(testWorkingDirectoryNameConstant, "beta"), repositories[1].Directory)
	require.NotNil(testInstance, repositories[0].Handle)

	require.Equal(testInstance, 3, governor.waitCount)
	for _, recordedDelay := range governor.delays {
		require.Equal(testInstance, testCloneDelayConstant, recordedDelay)
	}
}

func TestCheckoutRepositoriesOpensExistingWorkingCopies(testInstance *testing.T) {
	provider := &stubWorkingCopyProvider{}
	governor := &countingGovernor{}
	existingDirectory := filepath.Join(testWorkingDirectoryNameConstant, "beta")

	manager, managerError := checkout.NewManager(checkout.Dependencies{
		WorkingCopies: provider,
		Governor:      governor,
		FileSystem:    &mapFileSystem{existingPaths: map[string]struct{}{existingDirectory: {}}},
	})
	require.NoError(testInstance, managerError)

	options := checkout.Options{WorkingDirectoryPath: testWorkingDirectoryNameConstant, CloneDelay: testCloneDelayConstant}
	repositories, checkoutError := manager.CheckoutRepositories(context.Background(), testDescriptors(), options)
	require.NoError(testInstance, checkoutError)
	require.Len(testInstance, repositories, 3)

	require.Equal(testInstance, []string{existingDirectory}, provider.openedDirectories)
	require.Len(testInstance, provider.clonedDirectories, 2)
	require.Equal(testInstance, 2, governor.waitCount)
}

func TestCheckoutRepositoriesReturnsPartialResultsOnFailure(testInstance *testing.T) {
	provider := &stubWorkingCopyProvider{failingRepositoryName: "beta"}

	manager, managerError := checkout.NewManager(checkout.Dependencies{
		WorkingCopies: provider,
		Governor:      &countingGovernor{},
		FileSystem:    &mapFileSystem{existingPaths: map[string]struct{}{}},
	})
	require.NoError(testInstance, managerError)

	options := checkout.Options{WorkingDirectoryPath: testWorkingDirectoryNameConstant, CloneDelay: testCloneDelayConstant}
	repositories, checkoutError := manager.CheckoutRepositories(context.Background(), testDescriptors(), options)
	require.Error(testInstance, checkoutError)

	var checkoutFailure *checkout.CheckoutFailure
	require.ErrorAs(testInstance, checkoutError, &checkoutFailure)
	require.Equal(testInstance, "beta", checkoutFailure.RepositoryName)

	require.Len(testInstance, repositories, 2)
	require.Equal(testInstance, "alpha", repositories[0].Descriptor.Name)
	require.Equal(testInstance, "gamma", repositories[1].Descriptor.Name)
}

func TestCheckoutRepositoriesRequiresWorkingDirectory(testInstance *testing.T) {
	manager, managerError := checkout.NewManager(checkout.Dependencies{WorkingCopies: &stubWorkingCopyProvider{}})
	require.NoError(testInstance, managerError)

	_, checkoutError := manager.CheckoutRepositories(context.Background(), testDescriptors(), checkout.Options{})
	require.ErrorIs(testInstance, checkoutError, checkout.ErrWorkingDirectoryMissing)
}

func TestPrepareWorkingDirectoryResetsPriorContents(testInstance *testing.T) {
	baseDirectory := testInstance.TempDir()
	workingDirectoryPath := filepath.Join(baseDirectory, testWorkingDirectoryNameConstant)

	leftoverDirectory := filepath.Join(workingDirectoryPath, "stale-repository")
	require.NoError(testInstance, os.MkdirAll(leftoverDirectory, 0o755))
	leftoverFilePath := filepath.Join(leftoverDirectory, "stale-file")
	require.NoError(testInstance, os.WriteFile(leftoverFilePath, []byte("stale"), 0o644))

	manager, managerError := checkout.NewManager(checkout.Dependencies{WorkingCopies: &stubWorkingCopyProvider{}})
	require.NoError(testInstance, managerError)

	require.NoError(testInstance, manager.PrepareWorkingDirectory(checkout.Options{WorkingDirectoryPath: workingDirectoryPath}))

	require.DirExists(testInstance, workingDirectoryPath)
	require.NoDirExists(testInstance, leftoverDirectory)

	directoryEntries, readError := os.ReadDir(workingDirectoryPath)
	require.NoError(testInstance, readError)
	require.Empty(testInstance, directoryEntries)

	require.ErrorIs(testInstance, manager.PrepareWorkingDirectory(checkout.Options{}), checkout.ErrWorkingDirectoryMissing)
}
