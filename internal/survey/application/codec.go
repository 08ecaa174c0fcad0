package application

import (
	"fmt"
	"time"

	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// Record field names shared by every backend.
const (
	FieldShortCode            = "shortCode"
	FieldOwnerID              = "ownerId"
	FieldCreatorName          = "creatorName"
	FieldTitle                = "title"
	FieldLanguage             = "language"
	FieldStatus               = "status"
	FieldQuestions            = "questions"
	FieldCreatedAt            = "createdAt"
	FieldUpdatedAt            = "updatedAt"
	FieldSurveyID             = "surveyId"
	FieldRespondentID         = "respondentId"
	FieldAnswers              = "answers"
	FieldCurrentQuestionIndex = "currentQuestionIndex"
	FieldStartedAt            = "startedAt"
	FieldCompletedAt          = "completedAt"
)

// TimestampLayout is fixed width so that lexical order equals time order in every backend.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func surveyToRecord(s *domain.Survey) Record {
	return Record{
		FieldID:          s.ID.String(),
		FieldShortCode:   s.ShortCode,
		FieldOwnerID:     s.OwnerID,
		FieldCreatorName: s.CreatorName,
		FieldTitle:       s.Title,
		FieldLanguage:    s.Language,
		FieldStatus:      string(s.Status),
		FieldQuestions:   questionsToRecord(s.Questions),
		FieldCreatedAt:   FormatTimestamp(s.CreatedAt),
		FieldUpdatedAt:   FormatTimestamp(s.UpdatedAt),
	}
}

func questionsToRecord(questions []domain.Question) []any {
	out := make([]any, 0, len(questions))
	for _, q := range questions {
		out = append(out, questionToMap(q))
	}
	return out
}

func questionToMap(q domain.Question) map[string]any {
	options := make([]any, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, opt)
	}
	validation := map[string]any{}
	if q.Validation.Min != nil {
		validation["min"] = *q.Validation.Min
	}
	if q.Validation.Max != nil {
		validation["max"] = *q.Validation.Max
	}
	if q.Validation.MaxLength > 0 {
		validation["maxLength"] = q.Validation.MaxLength
	}
	if q.Validation.Pattern != "" {
		validation["pattern"] = q.Validation.Pattern
	}
	return map[string]any{
		"id":         q.ID,
		"type":       string(q.Type),
		"text":       q.Text,
		"required":   q.Required,
		"options":    options,
		"validation": validation,
	}
}

// surveyFromRecord refuses records whose id is not a canonical UUID.
func surveyFromRecord(rec Record) (*domain.Survey, error) {
	id, err := domain.ParseSurveyID(asString(rec[FieldID]))
	if err != nil {
		return nil, fmt.Errorf("survey record: %w", err)
	}
	status, err := domain.ParseSurveyStatus(asString(rec[FieldStatus]))
	if err != nil {
		return nil, fmt.Errorf("survey record %s: %w", id, err)
	}
	rawQuestions := asSlice(rec[FieldQuestions])
	questions := make([]domain.Question, 0, len(rawQuestions))
	for _, raw := range rawQuestions {
		questions = append(questions, questionFromMap(asMap(raw)))
	}
	return &domain.Survey{
		ID:          id,
		ShortCode:   asString(rec[FieldShortCode]),
		OwnerID:     asString(rec[FieldOwnerID]),
		CreatorName: asString(rec[FieldCreatorName]),
		Title:       asString(rec[FieldTitle]),
		Language:    asString(rec[FieldLanguage]),
		Status:      status,
		Questions:   questions,
		CreatedAt:   asTime(rec[FieldCreatedAt]),
		UpdatedAt:   asTime(rec[FieldUpdatedAt]),
	}, nil
}

func questionFromMap(m map[string]any) domain.Question {
	q := domain.Question{
		ID:       asString(m["id"]),
		Type:     domain.QuestionType(asString(m["type"])),
		Text:     asString(m["text"]),
		Required: asBool(m["required"]),
	}
	for _, opt := range asSlice(m["options"]) {
		q.Options = append(q.Options, asString(opt))
	}
	v := asMap(m["validation"])
	if n, ok := numeric(v["min"]); ok {
		q.Validation.Min = &n
	}
	if n, ok := numeric(v["max"]); ok {
		q.Validation.Max = &n
	}
	q.Validation.MaxLength = asInt(v["maxLength"])
	q.Validation.Pattern = asString(v["pattern"])
	return q
}

func responseToRecord(r *domain.Response) Record {
	rec := Record{
		FieldID:                   r.ID,
		FieldSurveyID:             r.SurveyID.String(),
		FieldRespondentID:         r.RespondentID,
		FieldStatus:               string(r.Status),
		FieldAnswers:              copyAnswers(r.Answers),
		FieldCurrentQuestionIndex: r.CurrentQuestionIndex,
		FieldStartedAt:            FormatTimestamp(r.StartedAt),
		FieldUpdatedAt:            FormatTimestamp(r.UpdatedAt),
		FieldCompletedAt:          nil,
	}
	if r.CompletedAt != nil {
		rec[FieldCompletedAt] = FormatTimestamp(*r.CompletedAt)
	}
	return rec
}

func responseFromRecord(rec Record) (*domain.Response, error) {
	id := asString(rec[FieldID])
	surveyID, err := domain.ParseSurveyID(asString(rec[FieldSurveyID]))
	if err != nil {
		return nil, fmt.Errorf("response record %s: %w", id, err)
	}
	status, err := domain.ParseResponseStatus(asString(rec[FieldStatus]))
	if err != nil {
		return nil, fmt.Errorf("response record %s: %w", id, err)
	}
	resp := &domain.Response{
		ID:                   id,
		SurveyID:             surveyID,
		RespondentID:         asString(rec[FieldRespondentID]),
		Status:               status,
		Answers:              copyAnswers(asMap(rec[FieldAnswers])),
		CurrentQuestionIndex: asInt(rec[FieldCurrentQuestionIndex]),
		StartedAt:            asTime(rec[FieldStartedAt]),
		UpdatedAt:            asTime(rec[FieldUpdatedAt]),
	}
	if rec[FieldCompletedAt] != nil {
		t := asTime(rec[FieldCompletedAt])
		if !t.IsZero() {
			resp.CompletedAt = &t
		}
	}
	return resp, nil
}

func copyAnswers(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	n, _ := numeric(v)
	return int(n)
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	if m == nil {
		if r, ok := v.(Record); ok {
			return r
		}
	}
	return m
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []map[string]any:
		out := make([]any, 0, len(s))
		for _, m := range s {
			out = append(out, m)
		}
		return out
	}
	return nil
}
