package application_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/infrastructure/memory"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

func TestResolver_Canonicalization(t *testing.T) {
	store := scenarioStore(t)
	resolver := application.NewResolver(store)
	ctx := context.Background()

	refs := []string{
		scenarioSurveyID,
		strings.ToUpper(scenarioSurveyID),
		scenarioShortCode,
		"f6mq",
		"F6mQ",
	}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			survey, err := resolver.Resolve(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, scenarioSurveyID, survey.ID.String())
			assert.Equal(t, scenarioShortCode, survey.ShortCode)
			assert.Equal(t, domain.SurveyActive, survey.Status)
			assert.Len(t, survey.Questions, 3)
		})
	}
}

func TestResolver_NotFound(t *testing.T) {
	store := scenarioStore(t)
	counting := &countingStore{RecordStore: store}
	resolver := application.NewResolver(counting)
	ctx := context.Background()

	t.Run("WellFormedShortCode", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "ZZZZ")
		assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
	})

	t.Run("UnknownUUID", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "00000000-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
	})

	t.Run("AmbiguousRunsCombinedLookup", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "ab")
		assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
	})

	responses, err := store.FindMany(ctx, application.CollectionResponses, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, responses)
	assert.Zero(t, counting.inserts)
	assert.Zero(t, counting.updates)
}

func TestResolver_AmbiguousMatchesEitherField(t *testing.T) {
	// A legacy short code outside today's alphabet is only reachable through
	// the combined lookup.
	store := memory.New()
	seedSurvey(t, store, scenarioSurveyID, "L0GO", domain.SurveyActive, textQuestion("q1", false))
	resolver := application.NewResolver(store)

	survey, err := resolver.Resolve(context.Background(), "l0go")
	require.NoError(t, err)
	assert.Equal(t, scenarioSurveyID, survey.ID.String())
}

func TestResolver_RejectAmbiguous(t *testing.T) {
	store := scenarioStore(t)
	observer := &recordingObserver{}
	resolver := application.NewResolver(store,
		application.WithRejectAmbiguous(true),
		application.WithResolverObserver(observer))
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "ab")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	survey, err := resolver.Resolve(ctx, "f6mq")
	require.NoError(t, err)
	assert.Equal(t, scenarioSurveyID, survey.ID.String())

	assert.Equal(t, []string{"ambiguous:rejected", "short_code:found"}, observer.resolutions)
}

func TestResolver_EmptyReferenceIsRejected(t *testing.T) {
	resolver := application.NewResolver(scenarioStore(t))
	_, err := resolver.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestResolver_PaddedReferenceIsAmbiguous(t *testing.T) {
	observer := &recordingObserver{}
	resolver := application.NewResolver(scenarioStore(t), application.WithResolverObserver(observer))
	ctx := context.Background()

	for _, ref := range []string{" f6mq\n", " F6MQ ", "\t" + scenarioSurveyID} {
		assert.Equal(t, domain.IdentifierAmbiguous, domain.Classify(ref))
		_, err := resolver.Resolve(ctx, ref)
		assert.ErrorIs(t, err, domain.ErrSurveyNotFound, "%q", ref)
	}
	assert.Equal(t, []string{"ambiguous:not_found", "ambiguous:not_found", "ambiguous:not_found"}, observer.resolutions)
}

func TestResolver_StoreFailurePropagates(t *testing.T) {
	observer := &recordingObserver{}
	resolver := application.NewResolver(brokenStore{}, application.WithResolverObserver(observer))

	_, err := resolver.Resolve(context.Background(), "F6MQ")
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, domain.ErrSurveyNotFound)
	assert.Equal(t, []string{"short_code:error"}, observer.resolutions)
}

func TestResolver_Load(t *testing.T) {
	resolver := application.NewResolver(scenarioStore(t))
	id, err := domain.ParseSurveyID(scenarioSurveyID)
	require.NoError(t, err)

	survey, err := resolver.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, scenarioShortCode, survey.ShortCode)

	_, err = resolver.Load(context.Background(), domain.SurveyID{})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}
