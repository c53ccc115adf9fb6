package passes_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gardenerhq/gardener/internal/transform/passes"
)

func TestManagedGitignorePassCreatesMissingFile(testInstance *testing.T) {
	target, repositoryDirectory := buildPassTarget(testInstance)

	cleanupPass := passes.NewManagedGitignorePass(nil)
	passResult, passError := cleanupPass.Apply(context.Background(), target)
	require.NoError(testInstance, passError)
	require.True(testInstance, passResult.Changed)
	require.Equal(testInstance, []string{".gitignore"}, passResult.ChangedFiles)

	gitignoreContents, readError := os.ReadFile(filepath.Join(repositoryDirectory, ".gitignore"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, ".DS_Store\n", string(gitignoreContents))
}

func TestManagedGitignorePassAppendsOnlyMissingEntries(testInstance *testing.T) {
	target, repositoryDirectory := buildPassTarget(testInstance)
	gitignorePath := filepath.Join(repositoryDirectory, ".gitignore")
	require.NoError(testInstance, os.WriteFile(gitignorePath, []byte("bin/\n.DS_Store"), 0o644))

	cleanupPass := passes.NewManagedGitignorePass([]string{".DS_Store", "node_modules/"})
	passResult, passError := cleanupPass.Apply(context.Background(), target)
	require.NoError(testInstance, passError)
	require.True(testInstance, passResult.Changed)

	gitignoreContents, readError := os.ReadFile(gitignorePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "bin/\n.DS_Store\nnode_modules/\n", string(gitignoreContents))
}

func TestManagedGitignorePassLeavesCompleteFileUntouched(testInstance *testing.T) {
	target, repositoryDirectory := buildPassTarget(testInstance)
	gitignorePath := filepath.Join(repositoryDirectory, ".gitignore")
	require.NoError(testInstance, os.WriteFile(gitignorePath, []byte(".DS_Store\nbin/\n"), 0o644))

	cleanupPass := passes.NewManagedGitignorePass(nil)
	passResult, passError := cleanupPass.Apply(context.Background(), target)
	require.NoError(testInstance, passError)
	require.False(testInstance, passResult.Changed)

	gitignoreContents, readError := os.ReadFile(gitignorePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, ".DS_Store\nbin/\n", string(gitignoreContents))
}
