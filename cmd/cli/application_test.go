package cli_test

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/gardenerhq/gardener/cmd/cli"
	"github.com/gardenerhq/gardener/internal/batch"
	"github.com/gardenerhq/gardener/internal/utils"
)

const embeddedConfigurationTypeConstant = "yaml"

func decodeEmbeddedApplicationConfiguration(testingInstance testing.TB) cli.ApplicationConfiguration {
	testingInstance.Helper()

	viperInstance := viper.New()
	viperInstance.SetConfigType(embeddedConfigurationTypeConstant)

	readError := viperInstance.ReadConfig(bytes.NewReader(cli.EmbeddedDefaultConfiguration()))
	require.NoError(testingInstance, readError)

	var configuration cli.ApplicationConfiguration
	unmarshalError := viperInstance.Unmarshal(&configuration)
	require.NoError(testingInstance, unmarshalError)

	return configuration
}

func TestEmbeddedDefaultConfigurationMatchesCodeDefaults(testInstance *testing.T) {
	configuration := decodeEmbeddedApplicationConfiguration(testInstance)
	codeDefaults := batch.DefaultConfiguration()

	assertions := require.New(testInstance)
	assertions.Equal(string(utils.LogLevelInfo), configuration.Common.LogLevel)
	assertions.Equal(string(utils.LogFormatStructured), configuration.Common.LogFormat)
	assertions.Equal(codeDefaults.MaximumPushCount, configuration.Batch.MaximumPushCount)
	assertions.Equal(codeDefaults.WorkingDirectory, configuration.Batch.WorkingDirectory)
	assertions.Equal(codeDefaults.TokenFilePath, configuration.Batch.TokenFilePath)
	assertions.Equal(codeDefaults.CacheDatabasePath, configuration.Batch.CacheDatabasePath)
	assertions.Equal(codeDefaults.OrganizationName, configuration.Batch.OrganizationName)
	assertions.Equal(codeDefaults.RootRepositoryOwner, configuration.Batch.RootRepositoryOwner)
	assertions.Equal(codeDefaults.RootRepositoryName, configuration.Batch.RootRepositoryName)
	assertions.Equal(codeDefaults.PageSize, configuration.Batch.PageSize)
	assertions.Equal(codeDefaults.WorkingBranchName, configuration.Batch.WorkingBranchName)
	assertions.Equal(codeDefaults.DefaultBranchName, configuration.Batch.DefaultBranchName)
	assertions.Equal(codeDefaults.PullRequestTitle, configuration.Batch.PullRequestTitle)
	assertions.Equal(codeDefaults.PullRequestLabel, configuration.Batch.PullRequestLabel)
	assertions.Equal(codeDefaults.ReviewerLogin, configuration.Batch.ReviewerLogin)
	assertions.Equal(codeDefaults.CloneDelay, configuration.Batch.CloneDelay)
	assertions.Equal(codeDefaults.PushDelay, configuration.Batch.PushDelay)
	assertions.Equal(codeDefaults.PullRequestDelay, configuration.Batch.PullRequestDelay)
	assertions.Equal(codeDefaults.HaltOnPushFailure, configuration.Batch.HaltOnPushFailure)
	assertions.Equal(codeDefaults.PipelineFilePath, configuration.Batch.PipelineFilePath)
}

func TestEmbeddedDefaultConfigurationListsAnalysisFilters(testInstance *testing.T) {
	configuration := decodeEmbeddedApplicationConfiguration(testInstance)

	assertions := require.New(testInstance)
	assertions.Equal([]string{".go"}, configuration.Batch.Analysis.SourceFileSuffixes)
	assertions.Equal([]string{"doc.go", "go.mod", "go.sum"}, configuration.Batch.Analysis.ExcludedFileNames)
	assertions.Equal([]string{"example_*.go", "*_example.go"}, configuration.Batch.Analysis.ExcludedFilePatterns)
	assertions.Equal([]string{".git", "vendor", "testdata", "examples"}, configuration.Batch.Analysis.ExcludedDirectoryNames)
}
