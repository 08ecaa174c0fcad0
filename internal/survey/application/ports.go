package application

import (
	"context"

	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// Resolution outcomes reported to Observer.SurveyResolved.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Observer receives notable events from the survey core. Implementations must be
// safe for concurrent use and must not block.
type Observer interface {
	SurveyResolved(kind domain.IdentifierKind, outcome string)
	ResponseTransitioned(from, to domain.ResponseStatus)
	IdentifierSpaceExhausted(kind string)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) SurveyResolved(domain.IdentifierKind, string) {}

func (NopObserver) ResponseTransitioned(domain.ResponseStatus, domain.ResponseStatus) {}

func (NopObserver) IdentifierSpaceExhausted(string) {}

// CompletionNotifier is told about responses that reached completed.
// Delivery failures are the notifier's own concern.
type CompletionNotifier interface {
	NotifyCompletion(ctx context.Context, response domain.Response)
}
