package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/infrastructure/storetest"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) application.RecordStore { return New() })
}

func TestStore_CopiesOnTheWayInAndOut(t *testing.T) {
	store := New()
	ctx := context.Background()

	answers := map[string]any{"q1": "Alice"}
	_, err := store.Insert(ctx, application.CollectionResponses, application.Record{
		application.FieldID:      "r1",
		application.FieldAnswers: answers,
	})
	require.NoError(t, err)
	answers["q1"] = "mutated"

	rec, err := store.FindOne(ctx, application.CollectionResponses, nil)
	require.NoError(t, err)
	rec[application.FieldAnswers].(map[string]any)["q1"] = "also mutated"

	again, err := store.FindOne(ctx, application.CollectionResponses, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"q1": "Alice"}, again[application.FieldAnswers])
}

func TestStore_StringSlicesBecomeAnySlices(t *testing.T) {
	store := New()
	rec, err := store.Insert(context.Background(), application.CollectionSurveys, application.Record{
		"options": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, rec["options"])
}

func TestStore_ExtraUniqueKey(t *testing.T) {
	store := New(WithUniqueFold(application.CollectionSurveys, application.FieldCreatorName))
	ctx := context.Background()
	_, err := store.Insert(ctx, application.CollectionSurveys, application.Record{application.FieldCreatorName: "Alice"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, application.CollectionSurveys, application.Record{application.FieldCreatorName: "alice"})
	assert.ErrorIs(t, err, application.ErrRecordConflict)
}

func TestStore_HonoursCancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FindOne(ctx, application.CollectionSurveys, nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Insert(ctx, application.CollectionSurveys, application.Record{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, store.Ping(context.Background()))
}
