package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/infrastructure/memory"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

const (
	scenarioSurveyID  = "60f43ae3-0428-4474-bfb2-ad74d00727d1"
	scenarioShortCode = "F6MQ"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// tickingClock advances by one second on every call.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *tickingClock { return &tickingClock{now: baseTime} }

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// seedSurvey writes a survey record straight into the store.
func seedSurvey(t *testing.T, store application.RecordStore, id, shortCode string, status domain.SurveyStatus, questions ...map[string]any) {
	t.Helper()
	qs := make([]any, 0, len(questions))
	for _, q := range questions {
		qs = append(qs, q)
	}
	_, err := store.Insert(context.Background(), application.CollectionSurveys, application.Record{
		application.FieldID:          id,
		application.FieldShortCode:   shortCode,
		application.FieldCreatorName: "BraveOtter0042",
		application.FieldTitle:       "Scenario survey",
		application.FieldLanguage:    "en",
		application.FieldStatus:      string(status),
		application.FieldQuestions:   qs,
		application.FieldCreatedAt:   application.FormatTimestamp(baseTime),
		application.FieldUpdatedAt:   application.FormatTimestamp(baseTime),
	})
	require.NoError(t, err)
}

func textQuestion(id string, required bool) map[string]any {
	return map[string]any{"id": id, "type": "text", "text": "Question " + id, "required": required}
}

// scenarioStore holds the active scenario survey with three text questions, q1 required.
func scenarioStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	seedSurvey(t, store, scenarioSurveyID, scenarioShortCode, domain.SurveyActive,
		textQuestion("q1", true), textQuestion("q2", false), textQuestion("q3", false))
	return store
}

// recordingObserver captures every observer call.
type recordingObserver struct {
	mu          sync.Mutex
	resolutions []string
	transitions []string
	exhausted   []string
}

func (o *recordingObserver) SurveyResolved(kind domain.IdentifierKind, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolutions = append(o.resolutions, kind.String()+":"+outcome)
}

func (o *recordingObserver) ResponseTransitioned(from, to domain.ResponseStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, string(from)+"->"+string(to))
}

func (o *recordingObserver) IdentifierSpaceExhausted(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exhausted = append(o.exhausted, kind)
}

var errStoreDown = errors.New("store unavailable")

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) FindOne(context.Context, application.Collection, application.Predicate) (application.Record, error) {
	return nil, errStoreDown
}

func (brokenStore) FindMany(context.Context, application.Collection, application.Predicate, *application.OrderBy) ([]application.Record, error) {
	return nil, errStoreDown
}

func (brokenStore) Insert(context.Context, application.Collection, application.Record) (application.Record, error) {
	return nil, errStoreDown
}

func (brokenStore) Update(context.Context, application.Collection, string, application.Predicate, application.Record) (application.Record, error) {
	return nil, errStoreDown
}

// countingStore records how many writes reach the wrapped store.
type countingStore struct {
	application.RecordStore
	mu      sync.Mutex
	inserts int
	updates int
}

func (s *countingStore) Insert(ctx context.Context, coll application.Collection, rec application.Record) (application.Record, error) {
	s.mu.Lock()
	s.inserts++
	s.mu.Unlock()
	return s.RecordStore.Insert(ctx, coll, rec)
}

func (s *countingStore) Update(ctx context.Context, coll application.Collection, id string, guard application.Predicate, fields application.Record) (application.Record, error) {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
	return s.RecordStore.Update(ctx, coll, id, guard, fields)
}
