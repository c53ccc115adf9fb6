package batch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gardenerhq/gardener/internal/batch"
)

func TestDefaultConfigurationCarriesConservativeDefaults(testInstance *testing.T) {
	configuration := batch.DefaultConfiguration()

	require.Zero(testInstance, configuration.MaximumPushCount)
	require.Equal(testInstance, "repos", configuration.WorkingDirectory)
	require.Equal(testInstance, "token", configuration.TokenFilePath)
	require.Equal(testInstance, "gardener-cache.db", configuration.CacheDatabasePath)
	require.Equal(testInstance, "gardenerhq", configuration.OrganizationName)
	require.Equal(testInstance, "gardenerhq", configuration.RootRepositoryOwner)
	require.Equal(testInstance, "garden-root", configuration.RootRepositoryName)
	require.Equal(testInstance, 100, configuration.PageSize)
	require.Equal(testInstance, "auto-cleanup", configuration.WorkingBranchName)
	require.Equal(testInstance, "master", configuration.DefaultBranchName)
	require.Equal(testInstance, 250*time.Millisecond, configuration.CloneDelay)
	require.Equal(testInstance, time.Second, configuration.PushDelay)
	require.Equal(testInstance, 5*time.Second, configuration.PullRequestDelay)
	require.True(testInstance, configuration.HaltOnPushFailure)
	require.Empty(testInstance, configuration.ReviewerLogin)
	require.Empty(testInstance, configuration.PipelineFilePath)
	require.Empty(testInstance, configuration.ExcludedRepositories)
}

func TestDefaultConfigurationValuesPrefixesEveryKey(testInstance *testing.T) {
	values := batch.DefaultConfigurationValues("batch")

	require.Len(testInstance, values, 19)
	require.Equal(testInstance, 0, values["batch.max_changes"])
	require.Equal(testInstance, "repos", values["batch.working_directory"])
	require.Equal(testInstance, "auto-cleanup", values["batch.working_branch"])
	require.Equal(testInstance, true, values["batch.halt_on_push_failure"])
	require.Equal(testInstance, 250*time.Millisecond, values["batch.clone_delay"])
	for configurationKey := range values {
		require.Contains(testInstance, configurationKey, "batch.")
	}
}
