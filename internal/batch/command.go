package batch

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gardenerhq/gardener/internal/analysis"
	"github.com/gardenerhq/gardener/internal/budget"
	"github.com/gardenerhq/gardener/internal/gitrepo"
	"github.com/gardenerhq/gardener/internal/githubauth"
	"github.com/gardenerhq/gardener/internal/hosting"
	"github.com/gardenerhq/gardener/internal/report"
	"github.com/gardenerhq/gardener/internal/responsecache"
	"github.com/gardenerhq/gardener/internal/transform"
	"github.com/gardenerhq/gardener/internal/transform/passes"
	"github.com/gardenerhq/gardener/internal/ui"
	"github.com/gardenerhq/gardener/internal/utils"
	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	commandUseConstant              = "gardener"
	commandShortDescriptionConstant = "Sweep every organization repository with the cleanup pipeline"
	commandLongDescriptionConstant  = "gardener discovers the organization's repositories, clones them concurrently,\n" +
		"analyzes their Go sources, applies the configured cleanup passes, and pushes\n" +
		"the resulting commits under a push budget with spaced remote calls."
	maxChangesFlagNameConstant          = "max_changes"
	maxChangesFlagShorthandConstant     = "c"
	maxChangesFlagDescriptionConstant   = "maximum number of repositories pushed this run (0 pushes nothing)"
	cacheUnavailableWarnMessageConstant = "Response cache unavailable, requests go straight to the hosting service"
)

// LoggerProvider supplies the logger assembled by the host application.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the batch configuration assembled by the
// host application.
type ConfigurationProvider func() Configuration

// BatchRunner executes one batch run into the accumulator.
type BatchRunner interface {
	Run(executionContext context.Context, configuration Configuration, accumulator *workset.Accumulator) error
}

// RunnerFactory builds the runner and push budget for one invocation. The
// returned cleanup releases resources held by the runner and may be nil.
type RunnerFactory func(configuration Configuration, logger *zap.Logger) (BatchRunner, *budget.PushBudget, func(), error)

// CommandBuilder assembles the gardener command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	Output                       io.Writer
	RunnerFactory                RunnerFactory
}

// Build constructs the command that runs the batch.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}
	command.Flags().IntP(maxChangesFlagNameConstant, maxChangesFlagShorthandConstant, 0, maxChangesFlagDescriptionConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration().sanitize()
	if command.Flags().Changed(maxChangesFlagNameConstant) {
		flagValue, flagError := command.Flags().GetInt(maxChangesFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.MaximumPushCount = flagValue
	}

	logger := builder.resolveLogger()
	batchRunner, pushBudget, cleanup, factoryError := builder.resolveRunnerFactory()(configuration, logger)
	if factoryError != nil {
		return factoryError
	}
	if cleanup != nil {
		defer cleanup()
	}

	accumulator := workset.NewAccumulator()
	runError := batchRunner.Run(command.Context(), configuration, accumulator)

	reporter := report.NewReporter(builder.resolveOutput())
	reporter.ReportOutcomes(accumulator)
	if runError != nil {
		return runError
	}
	reporter.ReportSummary(report.Summary{
		PushedCount:      pushBudget.PushedCount(),
		DeniedCount:      pushBudget.DeniedCount(),
		MaximumPushCount: pushBudget.Maximum(),
	})
	return nil
}

// buildProductionRunner wires the real hosting client, git manager, cache,
// and cleanup pipeline behind the engine.
func (builder *CommandBuilder) buildProductionRunner(configuration Configuration, logger *zap.Logger) (BatchRunner, *budget.PushBudget, func(), error) {
	bearerToken, tokenError := githubauth.ReadTokenFile(configuration.TokenFilePath)
	if tokenError != nil {
		return nil, nil, nil, tokenError
	}

	cleanup := func() {}
	cacheStore, storeError := responsecache.OpenStore(configuration.CacheDatabasePath)
	if storeError != nil {
		logger.Warn(cacheUnavailableWarnMessageConstant, zap.Error(storeError))
		cacheStore = nil
	} else {
		cleanup = func() {
			_ = cacheStore.Close()
		}
	}
	httpClient := &http.Client{Transport: responsecache.NewTransport(cacheStore, nil)}

	hostingClient, clientError := hosting.NewClient(hosting.ClientConfiguration{
		HTTPClient:  httpClient,
		BearerToken: bearerToken,
	})
	if clientError != nil {
		cleanup()
		return nil, nil, nil, clientError
	}

	cleanupPasses, passesError := builder.buildCleanupPasses(configuration)
	if passesError != nil {
		cleanup()
		return nil, nil, nil, passesError
	}

	pushBudget := budget.NewPushBudget(configuration.MaximumPushCount)
	engine, engineError := NewEngine(Dependencies{
		Lister:        hostingClient,
		Users:         hostingClient,
		WorkingCopies: gitrepo.NewRepositoryManager(gitrepo.RepositoryCredentials{BearerToken: bearerToken}),
		Analyzer:      analysis.NewInventoryAnalyzer(),
		Passes:        cleanupPasses,
		PullRequests:  hostingClient,
		Issues:        hostingClient,
		Budget:        pushBudget,
		Observer:      builder.resolveObserver(logger),
		Logger:        logger,
	})
	if engineError != nil {
		cleanup()
		return nil, nil, nil, engineError
	}
	return engine, pushBudget, cleanup, nil
}

func (builder *CommandBuilder) buildCleanupPasses(configuration Configuration) ([]transform.Pass, error) {
	if len(configuration.PipelineFilePath) == 0 {
		return passes.DefaultPipeline(), nil
	}
	pipelineConfiguration, loadError := transform.LoadPipelineConfiguration(configuration.PipelineFilePath)
	if loadError != nil {
		return nil, loadError
	}
	return passes.BuildPipeline(pipelineConfiguration)
}

func (builder *CommandBuilder) resolveObserver(logger *zap.Logger) ProgressObserver {
	if builder.resolveHumanReadableLogging() {
		return ui.NewConsoleBatchEventLogger(logger)
	}
	return NopProgressObserver{}
}

func (builder *CommandBuilder) resolveRunnerFactory() RunnerFactory {
	if builder.RunnerFactory == nil {
		return builder.buildProductionRunner
	}
	return builder.RunnerFactory
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	providedLogger := builder.LoggerProvider()
	if providedLogger == nil {
		return zap.NewNop()
	}
	return providedLogger
}

func (builder *CommandBuilder) resolveHumanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveOutput() io.Writer {
	if builder.Output == nil {
		return utils.NewFlushingWriter(os.Stdout)
	}
	return utils.NewFlushingWriter(builder.Output)
}
