package batch

import "github.com/gardenerhq/gardener/internal/workset"

// ProgressObserver receives run milestones as the engine works through the
// batch. Implementations render progress for humans and must not affect
// control flow.
type ProgressObserver interface {
	BatchStarted(repositoryCount int)
	CheckoutCompleted(repositoryCount int)
	AnalysisCompleted(analyzedFileCount int)
	RepositoryTransformed(repositoryName string, dirty bool, needsReview bool)
	RepositoryPublished(repositoryName string, outcome workset.PushOutcome)
}

// NopProgressObserver discards every notification.
type NopProgressObserver struct{}

// BatchStarted ignores the notification.
func (NopProgressObserver) BatchStarted(int) {}

// CheckoutCompleted ignores the notification.
func (NopProgressObserver) CheckoutCompleted(int) {}

// AnalysisCompleted ignores the notification.
func (NopProgressObserver) AnalysisCompleted(int) {}

// RepositoryTransformed ignores the notification.
func (NopProgressObserver) RepositoryTransformed(string, bool, bool) {}

// RepositoryPublished ignores the notification.
func (NopProgressObserver) RepositoryPublished(string, workset.PushOutcome) {}

func resolveObserver(observer ProgressObserver) ProgressObserver {
	if observer == nil {
		return NopProgressObserver{}
	}
	return observer
}
