package application_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/infrastructure/memory"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

func zeroRandom(int) int { return 0 }

// sequenceRandom replays values, repeating the last one.
func sequenceRandom(values ...int) func(int) int {
	i := 0
	return func(n int) int {
		v := values[len(values)-1]
		if i < len(values) {
			v = values[i]
			i++
		}
		return v % n
	}
}

func seedShortCodes(t *testing.T, store application.RecordStore, codes ...string) {
	t.Helper()
	for i, code := range codes {
		id := strings.Replace("00000000-0000-4000-8000-00000000000X", "X", string(rune('a'+i)), 1)
		seedSurvey(t, store, id, code, domain.SurveyActive)
	}
}

func TestIssuer_ShortCodeShape(t *testing.T) {
	issuer := application.NewIdentifierIssuer(memory.New())
	for i := 0; i < 50; i++ {
		code, err := issuer.IssueShortCode(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, domain.MinShortCodeLength)
		assert.Equal(t, domain.IdentifierShortCode, domain.Classify(code))
	}
}

func TestIssuer_ShortCodeSkipsTakenCaseInsensitively(t *testing.T) {
	store := memory.New()
	seedShortCodes(t, store, "2222")
	// First draw collides with "2222"; the second yields "3333".
	issuer := application.NewIdentifierIssuer(store, application.WithRandom(sequenceRandom(0, 0, 0, 0, 1, 1, 1, 1)))

	code, err := issuer.IssueShortCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3333", code)
}

func TestIssuer_ShortCodeGrowsLength(t *testing.T) {
	store := memory.New()
	seedShortCodes(t, store, "2222")
	issuer := application.NewIdentifierIssuer(store, application.WithRandom(zeroRandom))

	code, err := issuer.IssueShortCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "22222", code)
}

func TestIssuer_ShortCodeExhaustion(t *testing.T) {
	store := memory.New()
	seedShortCodes(t, store, "2222", "22222", "222222", "2222222", "22222222")
	observer := &recordingObserver{}
	counting := &countingStore{RecordStore: store}
	issuer := application.NewIdentifierIssuer(counting,
		application.WithRandom(zeroRandom),
		application.WithIssuerObserver(observer))

	_, err := issuer.IssueShortCode(context.Background())
	assert.ErrorIs(t, err, domain.ErrIdentifierSpaceExhausted)
	assert.Equal(t, []string{"short_code"}, observer.exhausted)
	assert.Zero(t, counting.inserts)
}

func TestIssuer_ShortCodeStoreFailure(t *testing.T) {
	issuer := application.NewIdentifierIssuer(brokenStore{})
	_, err := issuer.IssueShortCode(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, domain.ErrIdentifierSpaceExhausted)
}

func TestIssuer_CreatorAlias(t *testing.T) {
	cases := []struct {
		name string
		tag  string
		want string
	}{
		{"DefaultEnglish", "", "BraveOtter0000"},
		{"English", "en-US", "BraveOtter0000"},
		{"Japanese", "ja-JP", "GenkiTanuki0000"},
		{"AcceptLanguageList", "fr-CA,fr;q=0.9,en;q=0.5", "RenardMalin0000"},
		{"German", "de", "FlinkerFuchs0000"},
		{"Unsupported", "ko", "BraveOtter0000"},
		{"Garbage", "!!", "BraveOtter0000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issuer := application.NewIdentifierIssuer(memory.New(), application.WithRandom(zeroRandom))
			alias, err := issuer.IssueCreatorAlias(context.Background(), tc.tag)
			require.NoError(t, err)
			assert.Equal(t, tc.want, alias)
		})
	}
}

func TestIssuer_CreatorAliasSkipsTaken(t *testing.T) {
	store := memory.New()
	seedSurvey(t, store, scenarioSurveyID, scenarioShortCode, domain.SurveyActive)
	// seedSurvey uses BraveOtter0042 as the creator.
	issuer := application.NewIdentifierIssuer(store, application.WithRandom(sequenceRandom(0, 42, 0, 43)))

	alias, err := issuer.IssueCreatorAlias(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, "BraveOtter0043", alias)
}

func TestIssuer_CreatorAliasTimeFallback(t *testing.T) {
	store := memory.New()
	_, err := store.Insert(context.Background(), application.CollectionSurveys, application.Record{
		application.FieldID:          scenarioSurveyID,
		application.FieldShortCode:   scenarioShortCode,
		application.FieldCreatorName: "BraveOtter0000",
	})
	require.NoError(t, err)

	issuer := application.NewIdentifierIssuer(store,
		application.WithRandom(zeroRandom),
		application.WithIssuerClock(func() time.Time { return time.Unix(6000, 0) }))

	alias, err := issuer.IssueCreatorAlias(context.Background(), "en")
	require.NoError(t, err)
	// 6000s is minute 100, base36 "2s".
	assert.Equal(t, "BraveOtter-2s", alias)
}

func TestIssuer_CreatorAliasExactMatchOnly(t *testing.T) {
	store := memory.New()
	_, err := store.Insert(context.Background(), application.CollectionSurveys, application.Record{
		application.FieldID:          scenarioSurveyID,
		application.FieldShortCode:   scenarioShortCode,
		application.FieldCreatorName: "braveotter0000",
	})
	require.NoError(t, err)

	issuer := application.NewIdentifierIssuer(store, application.WithRandom(zeroRandom))
	alias, err := issuer.IssueCreatorAlias(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, "BraveOtter0000", alias)
}
