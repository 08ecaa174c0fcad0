// Package storetest holds the behaviour every application.RecordStore backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/survey/application"
)

// Factory returns an empty, ready store. Each subtest gets its own.
type Factory func(t *testing.T) application.RecordStore

const (
	surveyA = "60f43ae3-0428-4474-bfb2-ad74d00727d1"
	surveyB = "11111111-2222-4333-8444-555555555555"
)

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAssignsID", func(t *testing.T) {
		store := newStore(t)
		rec, err := store.Insert(context.Background(), application.CollectionResponses, application.Record{"status": "in_progress"})
		require.NoError(t, err)
		id, _ := rec[application.FieldID].(string)
		assert.NotEmpty(t, id)

		found, err := store.FindOne(context.Background(), application.CollectionResponses, application.Eq{Field: application.FieldID, Value: id})
		require.NoError(t, err)
		assert.Equal(t, "in_progress", found["status"])
	})

	t.Run("InsertDuplicateID", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.Insert(ctx, application.CollectionSurveys, survey(surveyA, "F6MQ", "alice"))
		require.NoError(t, err)
		_, err = store.Insert(ctx, application.CollectionSurveys, survey(surveyA, "K7QM", "alice"))
		assert.ErrorIs(t, err, application.ErrRecordConflict)

		// Ids are scoped per collection.
		_, err = store.Insert(ctx, application.CollectionResponses, application.Record{application.FieldID: surveyA})
		assert.NoError(t, err)
	})

	t.Run("ShortCodeUniqueIgnoringCase", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.Insert(ctx, application.CollectionSurveys, survey(surveyA, "F6MQ", "alice"))
		require.NoError(t, err)
		_, err = store.Insert(ctx, application.CollectionSurveys, survey(surveyB, "f6mq", "bob"))
		assert.ErrorIs(t, err, application.ErrRecordConflict)
	})

	t.Run("FindOnePredicates", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		seed(t, store)

		cases := []struct {
			name string
			pred application.Predicate
			want string
		}{
			{"EqID", application.Eq{Field: application.FieldID, Value: surveyB}, surveyB},
			{"EqField", application.Eq{Field: application.FieldCreatorName, Value: "bob"}, surveyB},
			{"EqFold", application.EqFold{Field: application.FieldShortCode, Value: "f6mq"}, surveyA},
			{"EqBool", application.Eq{Field: "featured", Value: true}, surveyB},
			{"EqNumber", application.Eq{Field: "weight", Value: 2.0}, surveyB},
			{"OrRightSide", application.Or{
				Left:  application.Eq{Field: application.FieldID, Value: "k7qm"},
				Right: application.EqFold{Field: application.FieldShortCode, Value: "k7qm"},
			}, surveyB},
			{"And", application.And{
				Left:  application.Eq{Field: application.FieldCreatorName, Value: "alice"},
				Right: application.Eq{Field: application.FieldStatus, Value: "active"},
			}, surveyA},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec, err := store.FindOne(ctx, application.CollectionSurveys, tc.pred)
				require.NoError(t, err)
				assert.Equal(t, tc.want, rec[application.FieldID])
			})
		}

		t.Run("NotFound", func(t *testing.T) {
			_, err := store.FindOne(ctx, application.CollectionSurveys, application.EqFold{Field: application.FieldShortCode, Value: "ZZZZ"})
			assert.ErrorIs(t, err, application.ErrRecordNotFound)
		})

		t.Run("EqIsCaseSensitive", func(t *testing.T) {
			_, err := store.FindOne(ctx, application.CollectionSurveys, application.Eq{Field: application.FieldShortCode, Value: "f6mq"})
			assert.ErrorIs(t, err, application.ErrRecordNotFound)
		})

		t.Run("CollectionsAreSeparate", func(t *testing.T) {
			_, err := store.FindOne(ctx, application.CollectionResponses, application.Eq{Field: application.FieldID, Value: surveyA})
			assert.ErrorIs(t, err, application.ErrRecordNotFound)
		})
	})

	t.Run("FindManyOrdering", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		for i, startedAt := range []string{
			"2024-05-01T09:00:02.000000000Z",
			"2024-05-01T09:00:01.000000000Z",
			"2024-05-01T09:00:03.000000000Z",
		} {
			_, err := store.Insert(ctx, application.CollectionResponses, application.Record{
				application.FieldID:        []string{"r1", "r2", "r3"}[i],
				application.FieldSurveyID:  surveyA,
				application.FieldStartedAt: startedAt,
			})
			require.NoError(t, err)
		}
		_, err := store.Insert(ctx, application.CollectionResponses, application.Record{
			application.FieldID:        "other",
			application.FieldSurveyID:  surveyB,
			application.FieldStartedAt: "2024-05-01T09:00:09.000000000Z",
		})
		require.NoError(t, err)

		where := application.Eq{Field: application.FieldSurveyID, Value: surveyA}

		desc, err := store.FindMany(ctx, application.CollectionResponses, where, &application.OrderBy{Field: application.FieldStartedAt, Desc: true})
		require.NoError(t, err)
		assert.Equal(t, []any{"r3", "r1", "r2"}, ids(desc))

		asc, err := store.FindMany(ctx, application.CollectionResponses, where, &application.OrderBy{Field: application.FieldStartedAt})
		require.NoError(t, err)
		assert.Equal(t, []any{"r2", "r1", "r3"}, ids(asc))

		inserted, err := store.FindMany(ctx, application.CollectionResponses, where, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"r1", "r2", "r3"}, ids(inserted))

		none, err := store.FindMany(ctx, application.CollectionResponses, application.Eq{Field: application.FieldSurveyID, Value: "F6MQ"}, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("UpdateMergesFields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.Insert(ctx, application.CollectionResponses, application.Record{
			application.FieldID:                   "r1",
			application.FieldStatus:               "in_progress",
			application.FieldAnswers:              map[string]any{},
			application.FieldCurrentQuestionIndex: 0,
		})
		require.NoError(t, err)

		updated, err := store.Update(ctx, application.CollectionResponses, "r1",
			application.Eq{Field: application.FieldStatus, Value: "in_progress"},
			application.Record{
				application.FieldID:                   "hijack",
				application.FieldAnswers:              map[string]any{"q1": "Alice", "q2": []any{"a", "b"}},
				application.FieldCurrentQuestionIndex: 1,
			})
		require.NoError(t, err)
		assert.Equal(t, "r1", updated[application.FieldID])
		assert.Equal(t, "in_progress", updated[application.FieldStatus])
		assert.True(t, application.EqualValues(1, updated[application.FieldCurrentQuestionIndex]))

		reloaded, err := store.FindOne(ctx, application.CollectionResponses, application.Eq{Field: application.FieldID, Value: "r1"})
		require.NoError(t, err)
		answers, ok := reloaded[application.FieldAnswers].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Alice", answers["q1"])
		assert.Equal(t, []any{"a", "b"}, answers["q2"])
	})

	t.Run("UpdateGuardMiss", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.Insert(ctx, application.CollectionResponses, application.Record{
			application.FieldID:     "r1",
			application.FieldStatus: "completed",
		})
		require.NoError(t, err)

		_, err = store.Update(ctx, application.CollectionResponses, "r1",
			application.Eq{Field: application.FieldStatus, Value: "in_progress"},
			application.Record{application.FieldStatus: "partial"})
		assert.ErrorIs(t, err, application.ErrRecordConflict)

		rec, err := store.FindOne(ctx, application.CollectionResponses, application.Eq{Field: application.FieldID, Value: "r1"})
		require.NoError(t, err)
		assert.Equal(t, "completed", rec[application.FieldStatus])
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Update(context.Background(), application.CollectionResponses, "nope", nil, application.Record{"x": 1})
		assert.ErrorIs(t, err, application.ErrRecordNotFound)
	})

	t.Run("UpdateShortCodeClash", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		seed(t, store)
		_, err := store.Update(ctx, application.CollectionSurveys, surveyB, nil, application.Record{application.FieldShortCode: "F6mq"})
		assert.ErrorIs(t, err, application.ErrRecordConflict)
	})
}

func survey(id, shortCode, creator string) application.Record {
	return application.Record{
		application.FieldID:          id,
		application.FieldShortCode:   shortCode,
		application.FieldCreatorName: creator,
		application.FieldStatus:      "active",
	}
}

func seed(t *testing.T, store application.RecordStore) {
	t.Helper()
	a := survey(surveyA, "F6MQ", "alice")
	a["featured"] = false
	a["weight"] = 1
	b := survey(surveyB, "K7QM", "bob")
	b["featured"] = true
	b["weight"] = 2
	for _, rec := range []application.Record{a, b} {
		_, err := store.Insert(context.Background(), application.CollectionSurveys, rec)
		require.NoError(t, err)
	}
}

func ids(recs []application.Record) []any {
	out := make([]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec[application.FieldID])
	}
	return out
}
