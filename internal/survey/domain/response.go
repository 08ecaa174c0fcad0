package domain

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// ResponseStatus is the lifecycle state of a respondent's session.
type ResponseStatus string

const (
	ResponseNotStarted ResponseStatus = "not_started"
	ResponseInProgress ResponseStatus = "in_progress"
	ResponsePartial    ResponseStatus = "partial"
	ResponseCompleted  ResponseStatus = "completed"
)

// ResponseEvent drives ResponseStatus transitions.
type ResponseEvent string

const (
	EventStart           ResponseEvent = "start"
	EventAnswer          ResponseEvent = "answer"
	EventGoBack          ResponseEvent = "go_back"
	EventComplete        ResponseEvent = "complete"
	EventAbandon         ResponseEvent = "abandon"
	EventSubmitCompleted ResponseEvent = "submit_completed"
	EventSubmitPartial   ResponseEvent = "submit_partial"
)

// Terminal states have no row here, so every event on them is rejected.
var responseTransitions = map[ResponseStatus]map[ResponseEvent]ResponseStatus{
	ResponseNotStarted: {
		EventStart:           ResponseInProgress,
		EventSubmitCompleted: ResponseCompleted,
		EventSubmitPartial:   ResponsePartial,
	},
	ResponseInProgress: {
		EventAnswer:   ResponseInProgress,
		EventGoBack:   ResponseInProgress,
		EventComplete: ResponseCompleted,
		EventAbandon:  ResponsePartial,
	},
}

// ParseResponseStatus accepts the persisted status strings.
func ParseResponseStatus(value string) (ResponseStatus, error) {
	switch s := ResponseStatus(value); s {
	case ResponseNotStarted, ResponseInProgress, ResponsePartial, ResponseCompleted:
		return s, nil
	default:
		return "", fmt.Errorf("unknown response status %q", value)
	}
}

func (s ResponseStatus) IsTerminal() bool {
	return s == ResponsePartial || s == ResponseCompleted
}

// Next applies event to s.
func (s ResponseStatus) Next(event ResponseEvent) (ResponseStatus, error) {
	if s.IsTerminal() {
		return s, fmt.Errorf("%w: status %s", ErrResponseAlreadyTerminal, s)
	}
	next, ok := responseTransitions[s][event]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s response", ErrInvalidStatusTransition, event, s)
	}
	return next, nil
}

// SubmitEvent maps a requested final status of a one-shot submission to its event.
func SubmitEvent(status ResponseStatus) (ResponseEvent, error) {
	switch status {
	case ResponseCompleted:
		return EventSubmitCompleted, nil
	case ResponsePartial:
		return EventSubmitPartial, nil
	default:
		return "", fmt.Errorf("%w: direct submission must be completed or partial, got %q", ErrInvalidStatusTransition, status)
	}
}

// Response is one respondent's answers to one survey.
type Response struct {
	ID                   string
	SurveyID             SurveyID
	RespondentID         string
	Status               ResponseStatus
	Answers              map[string]any
	CurrentQuestionIndex int
	StartedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time
}

// IsEmptyAnswer treats nil, blank strings and empty collections as unanswered.
func IsEmptyAnswer(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// MissingRequired lists required question ids without a non-empty answer, in survey order.
func MissingRequired(questions []Question, answers map[string]any) []string {
	var missing []string
	for _, q := range questions {
		if !q.Required {
			continue
		}
		if IsEmptyAnswer(answers[q.ID]) {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// CheckAnswers validates that every key is a question of the survey and that
// each value satisfies its question.
func CheckAnswers(survey *Survey, answers map[string]any) error {
	for id, value := range answers {
		q, ok := survey.Question(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownQuestion, id)
		}
		if err := q.Check(value); err != nil {
			return err
		}
	}
	return nil
}

// FurthestAnswered returns the index of the last question, in survey order,
// that has a non-empty answer.
func FurthestAnswered(questions []Question, answers map[string]any) int {
	idx := 0
	for i, q := range questions {
		if !IsEmptyAnswer(answers[q.ID]) {
			idx = i
		}
	}
	return idx
}
