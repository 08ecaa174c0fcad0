package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"SurveyNotFound", domain.ErrSurveyNotFound, http.StatusNotFound, "survey_not_found"},
		{"ResponseNotFound", domain.ErrResponseNotFound, http.StatusNotFound, "response_not_found"},
		{"NotActive", domain.ErrSurveyNotActive, http.StatusConflict, "survey_not_active"},
		{"Terminal", domain.ErrResponseAlreadyTerminal, http.StatusConflict, "response_already_terminal"},
		{"Transition", domain.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
		{"Required", domain.ErrRequiredAnswersMissing, http.StatusUnprocessableEntity, "required_answers_missing"},
		{"Identifier", domain.ErrInvalidIdentifier, http.StatusBadRequest, "invalid_identifier"},
		{"UnknownQuestion", domain.ErrUnknownQuestion, http.StatusBadRequest, "unknown_question"},
		{"Answer", domain.ErrInvalidAnswer, http.StatusBadRequest, "invalid_answer"},
		{"Survey", domain.ErrInvalidSurvey, http.StatusBadRequest, "invalid_survey"},
		{"CreatorNameTaken", domain.ErrCreatorNameTaken, http.StatusConflict, "creator_name_taken"},
		{"StoreConflict", application.ErrRecordConflict, http.StatusConflict, "conflict"},
		{"Exhausted", domain.ErrIdentifierSpaceExhausted, http.StatusInternalServerError, "internal_error"},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(nil, rec, fmt.Errorf("wrapped: %w", tc.err))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)

	rec := httptest.NewRecorder()
	WriteError(log, rec, errors.New("mongo: connection refused at 10.0.0.5"))

	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, logs.String(), "10.0.0.5")
}

func TestWriteError_StoreConflictDropsDriverText(t *testing.T) {
	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)

	driverErr := fmt.Errorf("%w: UNIQUE constraint failed: records.collection, records.short_code", application.ErrRecordConflict)
	rec := httptest.NewRecorder()
	WriteError(log, rec, fmt.Errorf("create survey: %w", driverErr))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "conflict", body.Code)
	assert.Empty(t, body.Details)
	assert.NotContains(t, rec.Body.String(), "UNIQUE")
	assert.Contains(t, logs.String(), "UNIQUE constraint failed")
}

func TestWriteError_DomainDetailsKept(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(nil, rec, fmt.Errorf("%w: %q", domain.ErrSurveyNotFound, "ZZZZ"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{`survey not found: "ZZZZ"`}, body.Details)
}

func TestWriteError_ExhaustionIsLogged(t *testing.T) {
	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)

	WriteError(log, httptest.NewRecorder(), domain.ErrIdentifierSpaceExhausted)
	assert.Contains(t, logs.String(), "level=error")
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("EmptyAllowed", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		assert.NoError(t, DecodeJSON(req, &p, true))
	})

	t.Run("EmptyRejected", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		assert.Error(t, DecodeJSON(req, &p, false))
	})

	t.Run("UnknownField", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","x":1}`))
		assert.Error(t, DecodeJSON(req, &p, false))
	})

	t.Run("TooLarge", func(t *testing.T) {
		var p payload
		big := `{"name":"` + strings.Repeat("a", MaxRequestBody) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		assert.Error(t, DecodeJSON(req, &p, false))
	})
}

func TestValidator_UsesJSONNames(t *testing.T) {
	type payload struct {
		QuestionID string `json:"question_id" validate:"required"`
		Status     string `json:"status" validate:"oneof=completed partial"`
	}
	problems := NewValidator().Validate(payload{Status: "done"})
	assert.Equal(t, []string{
		"payload.question_id: required",
		"payload.status: oneof=completed partial",
	}, problems)
	assert.Nil(t, NewValidator().Validate(payload{QuestionID: "q1", Status: "partial"}))
}
