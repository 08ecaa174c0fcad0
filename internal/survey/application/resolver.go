package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// Resolver turns a caller-supplied survey reference into the stored survey.
// Its only successful output is a full survey carrying a canonical id; the raw
// reference never leaves this type.
type Resolver struct {
	store           RecordStore
	observer        Observer
	rejectAmbiguous bool
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithRejectAmbiguous makes references that are neither a UUID nor a short code
// fail with ErrInvalidIdentifier instead of running the combined lookup.
func WithRejectAmbiguous(reject bool) ResolverOption {
	return func(r *Resolver) { r.rejectAmbiguous = reject }
}

// WithResolverObserver sets the observer notified of every resolution.
func WithResolverObserver(o Observer) ResolverOption {
	return func(r *Resolver) {
		if o != nil {
			r.observer = o
		}
	}
}

func NewResolver(store RecordStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, observer: NopObserver{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks the reference up with the strategy its shape calls for. raw is
// used as given: surrounding whitespace makes it ambiguous.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*domain.Survey, error) {
	kind := domain.Classify(raw)

	where, err := r.lookup(raw, kind)
	if err != nil {
		r.observer.SurveyResolved(kind, OutcomeRejected)
		return nil, err
	}

	rec, err := r.store.FindOne(ctx, CollectionSurveys, where)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		r.observer.SurveyResolved(kind, OutcomeNotFound)
		return nil, fmt.Errorf("%w: %q", domain.ErrSurveyNotFound, raw)
	case err != nil:
		r.observer.SurveyResolved(kind, OutcomeError)
		return nil, fmt.Errorf("resolve survey: %w", err)
	}

	survey, err := surveyFromRecord(rec)
	if err != nil {
		r.observer.SurveyResolved(kind, OutcomeError)
		return nil, err
	}
	r.observer.SurveyResolved(kind, OutcomeFound)
	return survey, nil
}

// Load fetches a survey by its canonical id.
func (r *Resolver) Load(ctx context.Context, id domain.SurveyID) (*domain.Survey, error) {
	return loadSurvey(ctx, r.store, id)
}

func (r *Resolver) lookup(raw string, kind domain.IdentifierKind) (Predicate, error) {
	switch kind {
	case domain.IdentifierUUID:
		id, err := domain.ParseSurveyID(raw)
		if err != nil {
			return nil, err
		}
		return Eq{Field: FieldID, Value: id.String()}, nil
	case domain.IdentifierShortCode:
		return EqFold{Field: FieldShortCode, Value: raw}, nil
	default:
		if r.rejectAmbiguous || strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("%w: %q is neither a survey id nor a short code", domain.ErrInvalidIdentifier, raw)
		}
		return Or{
			Left:  Eq{Field: FieldID, Value: raw},
			Right: EqFold{Field: FieldShortCode, Value: raw},
		}, nil
	}
}

func loadSurvey(ctx context.Context, store RecordStore, id domain.SurveyID) (*domain.Survey, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty survey id", domain.ErrInvalidIdentifier)
	}
	rec, err := store.FindOne(ctx, CollectionSurveys, Eq{Field: FieldID, Value: id.String()})
	if errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSurveyNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load survey %s: %w", id, err)
	}
	return surveyFromRecord(rec)
}
