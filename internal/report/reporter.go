package report

import (
	"fmt"
	"io"

	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	pushedGroupHeaderConstant        = "Pushed repositories:"
	deniedGroupHeaderConstant        = "Repositories with unpushed changes:"
	failedGroupHeaderConstant        = "Repositories with failed pushes:"
	groupMemberLineTemplateConstant  = "  %s\n"
	groupHeaderLineTemplateConstant  = "%s\n"
	nothingToDoSummaryConstant       = "No repositories required changes.\n"
	allPushedSummaryTemplateConstant = "Pushed all %d prepared changes.\n"
	allDeniedSummaryTemplateConstant = "Prepared changes in %d repositories but the push budget (%d) allowed none. Rerun with --max_changes (-c) to push them.\n"
	mixedSummaryTemplateConstant     = "Pushed %d of %d prepared changes; %d remain. Rerun with a higher --max_changes (-c) value to push the rest.\n"
)

// Summary carries the counts the final summary line is selected from.
type Summary struct {
	PushedCount      int
	DeniedCount      int
	MaximumPushCount int
}

// Reporter writes human-readable batch results. Writing is best effort so a
// broken writer never masks the batch outcome.
type Reporter struct {
	outputWriter io.Writer
}

// NewReporter builds a reporter; a nil writer discards all output.
func NewReporter(outputWriter io.Writer) *Reporter {
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	return &Reporter{outputWriter: outputWriter}
}

// ReportOutcomes prints the accumulated repositories grouped by outcome, each
// non-empty group as a header followed by member directories in accumulation
// order. Repositories that never reached a publish decision are omitted. A
// nil or empty accumulator prints nothing.
func (reporter *Reporter) ReportOutcomes(accumulator *workset.Accumulator) {
	if accumulator == nil {
		return
	}

	var pushedDirectories []string
	var deniedDirectories []string
	var failedDirectories []string
	for _, repository := range accumulator.Repositories() {
		switch repository.PushOutcome() {
		case workset.PushOutcomeSucceeded:
			pushedDirectories = append(pushedDirectories, repository.Directory)
		case workset.PushOutcomeDenied:
			deniedDirectories = append(deniedDirectories, repository.Directory)
		case workset.PushOutcomeFailed:
			failedDirectories = append(failedDirectories, repository.Directory)
		}
	}

	reporter.printGroup(pushedGroupHeaderConstant, pushedDirectories)
	reporter.printGroup(deniedGroupHeaderConstant, deniedDirectories)
	reporter.printGroup(failedGroupHeaderConstant, failedDirectories)
}

// ReportSummary prints the single summary line matching the counts.
func (reporter *Reporter) ReportSummary(summary Summary) {
	switch {
	case summary.PushedCount == 0 && summary.DeniedCount == 0:
		_, _ = fmt.Fprint(reporter.outputWriter, nothingToDoSummaryConstant)
	case summary.DeniedCount == 0:
		_, _ = fmt.Fprintf(reporter.outputWriter, allPushedSummaryTemplateConstant, summary.PushedCount)
	case summary.PushedCount == 0:
		_, _ = fmt.Fprintf(reporter.outputWriter, allDeniedSummaryTemplateConstant, summary.DeniedCount, summary.MaximumPushCount)
	default:
		preparedCount := summary.PushedCount + summary.DeniedCount
		_, _ = fmt.Fprintf(reporter.outputWriter, mixedSummaryTemplateConstant, summary.PushedCount, preparedCount, summary.DeniedCount)
	}
}

func (reporter *Reporter) printGroup(groupHeader string, memberDirectories []string) {
	if len(memberDirectories) == 0 {
		return
	}
	_, _ = fmt.Fprintf(reporter.outputWriter, groupHeaderLineTemplateConstant, groupHeader)
	for _, memberDirectory := range memberDirectories {
		_, _ = fmt.Fprintf(reporter.outputWriter, groupMemberLineTemplateConstant, memberDirectory)
	}
}
