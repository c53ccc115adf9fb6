package ui

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	batchStartedMessageTemplateConstant      = "Processing %d repositories"
	checkoutCompletedMessageTemplateConstant = "Prepared %d working copies"
	analysisCompletedMessageTemplateConstant = "Analyzed %d source files"
	repositoryCleanMessageTemplateConstant   = "No changes for %s"
	repositoryChangedMessageTemplateConstant = "Prepared changes for %s"
	reviewRequestedSuffixConstant            = " (review requested)"
	repositoryPushedMessageTemplateConstant  = "Pushed %s"
	repositoryHeldMessageTemplateConstant    = "Held back %s (push budget exhausted)"
	repositoryFailedMessageTemplateConstant  = "Push failed for %s"
	nothingToPushMessageTemplateConstant     = "Nothing to push for %s"
)

// BatchEventFormatter builds human-readable messages for batch progress events.
type BatchEventFormatter struct{}

// BuildBatchStartedMessage formats the message announcing the discovered batch.
func (formatter BatchEventFormatter) BuildBatchStartedMessage(repositoryCount int) string {
	return fmt.Sprintf(batchStartedMessageTemplateConstant, repositoryCount)
}

// BuildCheckoutCompletedMessage formats the message describing the prepared working copies.
func (formatter BatchEventFormatter) BuildCheckoutCompletedMessage(repositoryCount int) string {
	return fmt.Sprintf(checkoutCompletedMessageTemplateConstant, repositoryCount)
}

// BuildAnalysisCompletedMessage formats the message describing the analyzed sources.
func (formatter BatchEventFormatter) BuildAnalysisCompletedMessage(analyzedFileCount int) string {
	return fmt.Sprintf(analysisCompletedMessageTemplateConstant, analyzedFileCount)
}

// BuildRepositoryTransformedMessage formats the message describing the cleanup
// result for one repository.
func (formatter BatchEventFormatter) BuildRepositoryTransformedMessage(repositoryName string, dirty bool, needsReview bool) string {
	if !dirty {
		return fmt.Sprintf(repositoryCleanMessageTemplateConstant, repositoryName)
	}
	changedMessage := fmt.Sprintf(repositoryChangedMessageTemplateConstant, repositoryName)
	if needsReview {
		return changedMessage + reviewRequestedSuffixConstant
	}
	return changedMessage
}

// BuildRepositoryPublishedMessage formats the message describing the publish
// decision for one repository.
func (formatter BatchEventFormatter) BuildRepositoryPublishedMessage(repositoryName string, outcome workset.PushOutcome) string {
	switch outcome {
	case workset.PushOutcomeSucceeded:
		return fmt.Sprintf(repositoryPushedMessageTemplateConstant, repositoryName)
	case workset.PushOutcomeDenied:
		return fmt.Sprintf(repositoryHeldMessageTemplateConstant, repositoryName)
	case workset.PushOutcomeFailed:
		return fmt.Sprintf(repositoryFailedMessageTemplateConstant, repositoryName)
	default:
		return fmt.Sprintf(nothingToPushMessageTemplateConstant, repositoryName)
	}
}

// ConsoleBatchEventLogger renders batch progress events using a zap logger
// configured for human-readable output.
type ConsoleBatchEventLogger struct {
	logger    *zap.Logger
	formatter BatchEventFormatter
}

// NewConsoleBatchEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleBatchEventLogger(logger *zap.Logger) *ConsoleBatchEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleBatchEventLogger{logger: logger, formatter: BatchEventFormatter{}}
}

// BatchStarted logs the discovered repository count.
func (eventLogger *ConsoleBatchEventLogger) BatchStarted(repositoryCount int) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildBatchStartedMessage(repositoryCount))
}

// CheckoutCompleted logs the prepared working-copy count.
func (eventLogger *ConsoleBatchEventLogger) CheckoutCompleted(repositoryCount int) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildCheckoutCompletedMessage(repositoryCount))
}

// AnalysisCompleted logs the analyzed source-file count.
func (eventLogger *ConsoleBatchEventLogger) AnalysisCompleted(analyzedFileCount int) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildAnalysisCompletedMessage(analyzedFileCount))
}

// RepositoryTransformed logs the cleanup result for one repository.
func (eventLogger *ConsoleBatchEventLogger) RepositoryTransformed(repositoryName string, dirty bool, needsReview bool) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildRepositoryTransformedMessage(repositoryName, dirty, needsReview))
}

// RepositoryPublished logs the publish decision for one repository. Failed
// pushes surface as warnings so they stand out in the stream.
func (eventLogger *ConsoleBatchEventLogger) RepositoryPublished(repositoryName string, outcome workset.PushOutcome) {
	if eventLogger == nil {
		return
	}
	publishedMessage := eventLogger.formatter.BuildRepositoryPublishedMessage(repositoryName, outcome)
	if outcome == workset.PushOutcomeFailed {
		eventLogger.logger.Warn(publishedMessage)
		return
	}
	eventLogger.logger.Info(publishedMessage)
}
