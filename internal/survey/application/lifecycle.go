package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// ResponseLifecycle is the only writer of response records. Every method takes a
// canonical survey (or a response id) and never a raw survey reference.
type ResponseLifecycle struct {
	store    RecordStore
	observer Observer
	now      func() time.Time
	newID    func() string
}

// LifecycleOption customises a ResponseLifecycle.
type LifecycleOption func(*ResponseLifecycle)

func WithClock(now func() time.Time) LifecycleOption {
	return func(l *ResponseLifecycle) { l.now = now }
}

func WithIDSource(newID func() string) LifecycleOption {
	return func(l *ResponseLifecycle) { l.newID = newID }
}

func WithLifecycleObserver(o Observer) LifecycleOption {
	return func(l *ResponseLifecycle) {
		if o != nil {
			l.observer = o
		}
	}
}

func NewResponseLifecycle(store RecordStore, opts ...LifecycleOption) *ResponseLifecycle {
	l := &ResponseLifecycle{
		store:    store,
		observer: NopObserver{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start opens an in-progress response for an active survey.
// The survey must come from Resolver; its status is not re-read here.
func (l *ResponseLifecycle) Start(ctx context.Context, survey *domain.Survey, respondentID string) (*domain.Response, error) {
	if err := requireCanonical(survey); err != nil {
		return nil, err
	}
	if !survey.Status.AcceptsResponses() {
		return nil, fmt.Errorf("%w: survey %s is %s", domain.ErrSurveyNotActive, survey.ID, survey.Status)
	}
	status, err := domain.ResponseNotStarted.Next(domain.EventStart)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	resp := &domain.Response{
		ID:                   l.newID(),
		SurveyID:             survey.ID,
		RespondentID:         strings.TrimSpace(respondentID),
		Status:               status,
		Answers:              map[string]any{},
		CurrentQuestionIndex: 0,
		StartedAt:            now,
		UpdatedAt:            now,
	}
	if _, err := l.store.Insert(ctx, CollectionResponses, responseToRecord(resp)); err != nil {
		return nil, fmt.Errorf("start response: %w", err)
	}
	l.observer.ResponseTransitioned(domain.ResponseNotStarted, status)
	return resp, nil
}

// RecordAnswer stores value under questionID and moves the cursor forward unless
// it already points at the last question. Both fields are written together.
func (l *ResponseLifecycle) RecordAnswer(ctx context.Context, responseID, questionID string, value any) (*domain.Response, error) {
	resp, err := l.Get(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if _, err := resp.Status.Next(domain.EventAnswer); err != nil {
		return nil, err
	}
	survey, err := loadSurvey(ctx, l.store, resp.SurveyID)
	if err != nil {
		return nil, err
	}
	q, ok := survey.Question(questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownQuestion, questionID)
	}
	if err := q.Check(value); err != nil {
		return nil, err
	}

	answers := copyAnswers(resp.Answers)
	answers[questionID] = value
	index := resp.CurrentQuestionIndex
	if index < survey.LastQuestionIndex() {
		index++
	}
	return l.apply(ctx, resp, domain.EventAnswer, Record{
		FieldAnswers:              answers,
		FieldCurrentQuestionIndex: index,
	})
}

// GoBack moves the cursor back one question. At the first question it succeeds without writing.
func (l *ResponseLifecycle) GoBack(ctx context.Context, responseID string) (*domain.Response, error) {
	resp, err := l.Get(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if _, err := resp.Status.Next(domain.EventGoBack); err != nil {
		return nil, err
	}
	if resp.CurrentQuestionIndex <= 0 {
		return resp, nil
	}
	return l.apply(ctx, resp, domain.EventGoBack, Record{
		FieldCurrentQuestionIndex: resp.CurrentQuestionIndex - 1,
	})
}

// Complete finalises the response. Every required question must have an answer.
func (l *ResponseLifecycle) Complete(ctx context.Context, responseID string) (*domain.Response, error) {
	resp, err := l.Get(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if _, err := resp.Status.Next(domain.EventComplete); err != nil {
		return nil, err
	}
	survey, err := loadSurvey(ctx, l.store, resp.SurveyID)
	if err != nil {
		return nil, err
	}
	if missing := domain.MissingRequired(survey.Questions, resp.Answers); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrRequiredAnswersMissing, strings.Join(missing, ", "))
	}
	return l.apply(ctx, resp, domain.EventComplete, Record{
		FieldCompletedAt: FormatTimestamp(l.now()),
	})
}

// Abandon closes an in-progress response as partial, keeping what was answered.
func (l *ResponseLifecycle) Abandon(ctx context.Context, responseID string) (*domain.Response, error) {
	resp, err := l.Get(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if _, err := resp.Status.Next(domain.EventAbandon); err != nil {
		return nil, err
	}
	return l.apply(ctx, resp, domain.EventAbandon, Record{})
}

// SubmitDirect creates an already finalised response in one write (form mode).
func (l *ResponseLifecycle) SubmitDirect(ctx context.Context, survey *domain.Survey, answers map[string]any, status domain.ResponseStatus, respondentID string) (*domain.Response, error) {
	if err := requireCanonical(survey); err != nil {
		return nil, err
	}
	if !survey.Status.AcceptsResponses() {
		return nil, fmt.Errorf("%w: survey %s is %s", domain.ErrSurveyNotActive, survey.ID, survey.Status)
	}
	event, err := domain.SubmitEvent(status)
	if err != nil {
		return nil, err
	}
	next, err := domain.ResponseNotStarted.Next(event)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckAnswers(survey, answers); err != nil {
		return nil, err
	}
	if next == domain.ResponseCompleted {
		if missing := domain.MissingRequired(survey.Questions, answers); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrRequiredAnswersMissing, strings.Join(missing, ", "))
		}
	}

	now := l.now().UTC()
	resp := &domain.Response{
		ID:                   l.newID(),
		SurveyID:             survey.ID,
		RespondentID:         strings.TrimSpace(respondentID),
		Status:               next,
		Answers:              copyAnswers(answers),
		CurrentQuestionIndex: domain.FurthestAnswered(survey.Questions, answers),
		StartedAt:            now,
		UpdatedAt:            now,
	}
	if next == domain.ResponseCompleted {
		resp.CompletedAt = &now
	}
	if _, err := l.store.Insert(ctx, CollectionResponses, responseToRecord(resp)); err != nil {
		return nil, fmt.Errorf("submit response: %w", err)
	}
	l.observer.ResponseTransitioned(domain.ResponseNotStarted, next)
	return resp, nil
}

// ListForSurvey returns the survey's responses, most recently started first.
// Filtering is by canonical id equality only.
func (l *ResponseLifecycle) ListForSurvey(ctx context.Context, surveyID domain.SurveyID) ([]domain.Response, error) {
	if surveyID.IsZero() {
		return nil, fmt.Errorf("%w: empty survey id", domain.ErrInvalidIdentifier)
	}
	recs, err := l.store.FindMany(ctx, CollectionResponses,
		Eq{Field: FieldSurveyID, Value: surveyID.String()},
		&OrderBy{Field: FieldStartedAt, Desc: true})
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	out := make([]domain.Response, 0, len(recs))
	for _, rec := range recs {
		resp, err := responseFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// Get loads one response.
func (l *ResponseLifecycle) Get(ctx context.Context, responseID string) (*domain.Response, error) {
	responseID = strings.TrimSpace(responseID)
	if responseID == "" {
		return nil, fmt.Errorf("%w: empty id", domain.ErrResponseNotFound)
	}
	rec, err := l.store.FindOne(ctx, CollectionResponses, Eq{Field: FieldID, Value: responseID})
	if errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrResponseNotFound, responseID)
	}
	if err != nil {
		return nil, fmt.Errorf("load response %s: %w", responseID, err)
	}
	return responseFromRecord(rec)
}

// apply writes fields plus the new status, guarded on the response still being
// in the status it was read in. A lost race surfaces as ErrResponseAlreadyTerminal
// because terminal states are the only ones a concurrent writer can move to.
func (l *ResponseLifecycle) apply(ctx context.Context, resp *domain.Response, event domain.ResponseEvent, fields Record) (*domain.Response, error) {
	next, err := resp.Status.Next(event)
	if err != nil {
		return nil, err
	}
	fields[FieldStatus] = string(next)
	fields[FieldUpdatedAt] = FormatTimestamp(l.now())

	guard := Eq{Field: FieldStatus, Value: string(resp.Status)}
	rec, err := l.store.Update(ctx, CollectionResponses, resp.ID, guard, fields)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return nil, fmt.Errorf("%w: %s", domain.ErrResponseNotFound, resp.ID)
	case errors.Is(err, ErrRecordConflict):
		return nil, fmt.Errorf("%w: %s changed concurrently", domain.ErrResponseAlreadyTerminal, resp.ID)
	case err != nil:
		return nil, fmt.Errorf("update response %s: %w", resp.ID, err)
	}

	updated, err := responseFromRecord(rec)
	if err != nil {
		return nil, err
	}
	if next != resp.Status {
		l.observer.ResponseTransitioned(resp.Status, next)
	}
	return updated, nil
}

func requireCanonical(survey *domain.Survey) error {
	if survey == nil || survey.ID.IsZero() {
		return fmt.Errorf("%w: survey has no canonical id", domain.ErrInvalidIdentifier)
	}
	return nil
}
