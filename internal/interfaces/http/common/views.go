package common

import (
	"time"

	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

type QuestionView struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Text       string          `json:"text"`
	Required   bool            `json:"required"`
	Options    []string        `json:"options,omitempty"`
	Validation *ValidationView `json:"validation,omitempty"`
}

type ValidationView struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

// SurveyView is the respondent-facing survey shape. Creator fields are filled only
// by NewCreatorSurveyView.
type SurveyView struct {
	ID          string         `json:"id"`
	ShortCode   string         `json:"shortCode"`
	Title       string         `json:"title"`
	Language    string         `json:"language,omitempty"`
	Status      string         `json:"status"`
	Questions   []QuestionView `json:"questions"`
	CreatorName string         `json:"creatorName,omitempty"`
	CreatedAt   *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}

type ResponseView struct {
	ID                   string         `json:"id"`
	SurveyID             string         `json:"surveyId"`
	RespondentID         string         `json:"respondentId,omitempty"`
	Status               string         `json:"status"`
	Answers              map[string]any `json:"answers"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`
	StartedAt            time.Time      `json:"startedAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	CompletedAt          *time.Time     `json:"completedAt,omitempty"`
}

func NewSurveyView(s *domain.Survey) SurveyView {
	questions := make([]QuestionView, 0, len(s.Questions))
	for _, q := range s.Questions {
		qv := QuestionView{
			ID:       q.ID,
			Type:     string(q.Type),
			Text:     q.Text,
			Required: q.Required,
			Options:  q.Options,
		}
		v := q.Validation
		if v.Min != nil || v.Max != nil || v.MaxLength > 0 || v.Pattern != "" {
			qv.Validation = &ValidationView{Min: v.Min, Max: v.Max, MaxLength: v.MaxLength, Pattern: v.Pattern}
		}
		questions = append(questions, qv)
	}
	return SurveyView{
		ID:        s.ID.String(),
		ShortCode: s.ShortCode,
		Title:     s.Title,
		Language:  s.Language,
		Status:    string(s.Status),
		Questions: questions,
	}
}

func NewCreatorSurveyView(s *domain.Survey, loc *time.Location) SurveyView {
	view := NewSurveyView(s)
	created := inLocation(s.CreatedAt, loc)
	updated := inLocation(s.UpdatedAt, loc)
	view.CreatorName = s.CreatorName
	view.CreatedAt = &created
	view.UpdatedAt = &updated
	return view
}

func NewResponseView(r *domain.Response, loc *time.Location) ResponseView {
	view := ResponseView{
		ID:                   r.ID,
		SurveyID:             r.SurveyID.String(),
		RespondentID:         r.RespondentID,
		Status:               string(r.Status),
		Answers:              r.Answers,
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		StartedAt:            inLocation(r.StartedAt, loc),
		UpdatedAt:            inLocation(r.UpdatedAt, loc),
	}
	if view.Answers == nil {
		view.Answers = map[string]any{}
	}
	if r.CompletedAt != nil {
		completed := inLocation(*r.CompletedAt, loc)
		view.CompletedAt = &completed
	}
	return view
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
