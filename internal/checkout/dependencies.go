package checkout

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gardenerhq/gardener/internal/throttle"
	"github.com/gardenerhq/gardener/internal/workset"
)

// WorkingCopyProvider clones or reopens repositories and returns operation
// handles for them.
type WorkingCopyProvider interface {
	CloneRepository(executionContext context.Context, cloneURL string, repositoryDirectory string) (workset.RepositoryHandle, error)
	OpenRepository(repositoryDirectory string) (workset.RepositoryHandle, error)
}

// RateGovernor paces remote operations issued by concurrent workers.
type RateGovernor interface {
	Wait(executionContext context.Context, requestedDelay time.Duration) error
}

// FileSystem covers the directory operations the manager performs.
type FileSystem interface {
	Stat(path string) (os.FileInfo, error)
	RemoveAll(path string) error
	MkdirAll(path string, permissions os.FileMode) error
}

// OSFileSystem implements FileSystem with operating system calls.
type OSFileSystem struct{}

// Stat reports file information for the path.
func (OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// RemoveAll deletes the path recursively.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// MkdirAll creates the directory hierarchy.
func (OSFileSystem) MkdirAll(path string, permissions os.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// Dependencies bundles the collaborators required by the Manager.
type Dependencies struct {
	WorkingCopies WorkingCopyProvider
	Governor      RateGovernor
	FileSystem    FileSystem
	Logger        *zap.Logger
}

func resolveDependencies(dependencies Dependencies) Dependencies {
	if dependencies.Governor == nil {
		dependencies.Governor = throttle.NewRateGovernor(nil)
	}
	if dependencies.FileSystem == nil {
		dependencies.FileSystem = OSFileSystem{}
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return dependencies
}
