package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

func TestMatch(t *testing.T) {
	rec := Record{
		FieldID:        "60f43ae3-0428-4474-bfb2-ad74d00727d1",
		FieldShortCode: "F6MQ",
		FieldStatus:    "active",
		"count":        3,
		"flag":         true,
		"missing":      nil,
	}

	cases := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"NilMatchesAll", nil, true},
		{"EqString", Eq{Field: FieldStatus, Value: "active"}, true},
		{"EqCaseSensitive", Eq{Field: FieldShortCode, Value: "f6mq"}, false},
		{"EqNumericKinds", Eq{Field: "count", Value: 3.0}, true},
		{"EqBool", Eq{Field: "flag", Value: true}, true},
		{"EqNil", Eq{Field: "missing", Value: nil}, true},
		{"EqAbsentIsNil", Eq{Field: "nope", Value: nil}, true},
		{"EqTypeMismatch", Eq{Field: "count", Value: "3"}, false},
		{"EqFold", EqFold{Field: FieldShortCode, Value: "f6mq"}, true},
		{"EqFoldNonString", EqFold{Field: "count", Value: "3"}, false},
		{"OrEitherSide", Or{Left: Eq{Field: FieldID, Value: "f6mq"}, Right: EqFold{Field: FieldShortCode, Value: "f6mq"}}, true},
		{"OrNeither", Or{Left: Eq{Field: FieldID, Value: "x"}, Right: EqFold{Field: FieldShortCode, Value: "x"}}, false},
		{"AndBoth", And{Left: Eq{Field: FieldStatus, Value: "active"}, Right: Eq{Field: "flag", Value: true}}, true},
		{"AndOneSide", And{Left: Eq{Field: FieldStatus, Value: "draft"}, Right: Eq{Field: "flag", Value: true}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Match(tc.pred, rec))
		})
	}
}

func TestFoldASCII(t *testing.T) {
	assert.Equal(t, "f6mq", FoldASCII("F6MQ"))
	assert.Equal(t, "abc", FoldASCII("abc"))
	// Non-ASCII letters keep their case.
	assert.Equal(t, "ÄbÇ", FoldASCII("ÄBÇ"))
}

func TestCompareValues(t *testing.T) {
	assert.Negative(t, CompareValues(nil, 1))
	assert.Negative(t, CompareValues(1, "a"))
	assert.Negative(t, CompareValues(1, 2.5))
	assert.Zero(t, CompareValues(int64(2), 2.0))
	assert.Positive(t, CompareValues("b", "a"))
}

func TestFormatTimestamp_OrdersLexically(t *testing.T) {
	early := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 5, time.UTC))
	late := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 50, time.UTC))
	assert.Len(t, early, len(late))
	assert.Less(t, early, late)

	jst := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "2024-01-01T00:00:00.000000000Z", FormatTimestamp(time.Date(2024, 1, 1, 9, 0, 0, 0, jst)))
}

func TestSurveyCodec_RoundTrip(t *testing.T) {
	id, err := domain.ParseSurveyID("60f43ae3-0428-4474-bfb2-ad74d00727d1")
	require.NoError(t, err)
	limit := 10.0
	created := time.Date(2024, 5, 1, 9, 0, 0, 123, time.UTC)
	survey := &domain.Survey{
		ID:          id,
		ShortCode:   "F6MQ",
		CreatorName: "BraveOtter0001",
		Title:       "Title",
		Language:    "en",
		Status:      domain.SurveyActive,
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionNumber, Text: "How many?", Required: true, Validation: domain.Validation{Max: &limit}},
			{ID: "q2", Type: domain.QuestionText, Text: "Code", Validation: domain.Validation{MaxLength: 6, Pattern: "[A-Z]+"}},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}

	back, err := surveyFromRecord(surveyToRecord(survey))
	require.NoError(t, err)
	assert.Equal(t, survey, back)
}

func TestSurveyCodec_RejectsAliasID(t *testing.T) {
	_, err := surveyFromRecord(Record{FieldID: "F6MQ", FieldStatus: "active"})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestResponseCodec_TolerantDecoding(t *testing.T) {
	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rec := Record{
		FieldID:                   "resp-1",
		FieldSurveyID:             "60F43AE3-0428-4474-BFB2-AD74D00727D1",
		FieldStatus:               "completed",
		FieldAnswers:              map[string]any{"q1": "Alice"},
		FieldCurrentQuestionIndex: int64(2),
		FieldStartedAt:            started,
		FieldCompletedAt:          "2024-05-01T09:05:00Z",
	}

	resp, err := responseFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, "60f43ae3-0428-4474-bfb2-ad74d00727d1", resp.SurveyID.String())
	assert.Equal(t, 2, resp.CurrentQuestionIndex)
	assert.Equal(t, started, resp.StartedAt)
	require.NotNil(t, resp.CompletedAt)
	assert.Equal(t, started.Add(5*time.Minute), *resp.CompletedAt)

	_, err = responseFromRecord(Record{FieldID: "r", FieldSurveyID: "F6MQ", FieldStatus: "completed"})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}
