package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SurveyStatus governs whether a survey accepts new responses.
type SurveyStatus string

const (
	SurveyDraft  SurveyStatus = "draft"
	SurveyActive SurveyStatus = "active"
	SurveyClosed SurveyStatus = "closed"
)

var surveyTransitions = map[SurveyStatus][]SurveyStatus{
	SurveyDraft:  {SurveyActive, SurveyClosed},
	SurveyActive: {SurveyClosed},
}

// ParseSurveyStatus accepts the three known status strings.
func ParseSurveyStatus(value string) (SurveyStatus, error) {
	switch s := SurveyStatus(strings.TrimSpace(strings.ToLower(value))); s {
	case SurveyDraft, SurveyActive, SurveyClosed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown survey status %q", ErrInvalidStatusTransition, value)
	}
}

// AcceptsResponses reports whether new responses may be created.
func (s SurveyStatus) AcceptsResponses() bool {
	return s == SurveyActive
}

// TransitionTo validates a status change. Closed is terminal.
func (s SurveyStatus) TransitionTo(next SurveyStatus) error {
	for _, allowed := range surveyTransitions[s] {
		if allowed == next {
			return nil
		}
	}
	return fmt.Errorf("%w: survey %s -> %s", ErrInvalidStatusTransition, s, next)
}

// Survey is the canonical survey record.
type Survey struct {
	ID          SurveyID
	ShortCode   string
	// OwnerID is the subject of the creator who made the survey. Empty for
	// surveys seeded by operators.
	OwnerID     string
	CreatorName string
	Title       string
	Language    string
	Status      SurveyStatus
	Questions   []Question
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question looks up a question by id.
func (s *Survey) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionIDs returns ids in display order.
func (s *Survey) QuestionIDs() []string {
	ids := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

// LastQuestionIndex is the highest valid currentQuestionIndex, 0 for an empty survey.
func (s *Survey) LastQuestionIndex() int {
	if len(s.Questions) == 0 {
		return 0
	}
	return len(s.Questions) - 1
}

// Reordered returns the questions rearranged to match order, which must be a
// permutation of the current ids.
func (s *Survey) Reordered(order []string) ([]Question, error) {
	if len(order) != len(s.Questions) {
		return nil, fmt.Errorf("%w: order has %d ids, survey has %d questions", ErrInvalidSurvey, len(order), len(s.Questions))
	}
	byID := make(map[string]Question, len(s.Questions))
	for _, q := range s.Questions {
		byID[q.ID] = q
	}
	result := make([]Question, 0, len(order))
	for _, id := range order {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownQuestion, id)
		}
		delete(byID, id)
		result = append(result, q)
	}
	return result, nil
}

// ValidateQuestions checks that every question has a unique id, a known type and text.
func ValidateQuestions(questions []Question) error {
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("%w: question %d has no id", ErrInvalidSurvey, i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidSurvey, q.ID)
		}
		seen[q.ID] = struct{}{}
		if !q.Type.Valid() {
			return fmt.Errorf("%w: question %q has unknown type %q", ErrInvalidSurvey, q.ID, q.Type)
		}
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %q has no text", ErrInvalidSurvey, q.ID)
		}
		if q.Type.IsChoice() && len(q.Options) == 0 {
			return fmt.Errorf("%w: question %q needs options", ErrInvalidSurvey, q.ID)
		}
		if q.Validation.Pattern != "" {
			if _, err := regexp.Compile(q.Validation.Pattern); err != nil {
				return fmt.Errorf("%w: question %q has a bad pattern: %v", ErrInvalidSurvey, q.ID, err)
			}
		}
		if q.Validation.Min != nil && q.Validation.Max != nil && *q.Validation.Min > *q.Validation.Max {
			return fmt.Errorf("%w: question %q has min above max", ErrInvalidSurvey, q.ID)
		}
	}
	return nil
}
