package domain

import "errors"

var (
	// ErrSurveyNotFound means no survey matched the resolved identifier.
	ErrSurveyNotFound = errors.New("survey not found")
	// ErrSurveyNotActive means the survey exists but is draft or closed.
	ErrSurveyNotActive = errors.New("survey not accepting responses")
	// ErrResponseNotFound is returned for an unknown response handle.
	ErrResponseNotFound = errors.New("response not found")
	// ErrResponseAlreadyTerminal is returned for any mutation of a partial or completed response.
	ErrResponseAlreadyTerminal = errors.New("response already finalized")
	// ErrIdentifierSpaceExhausted signals that every short-code length was tried without finding a free value.
	ErrIdentifierSpaceExhausted = errors.New("identifier space exhausted")
	// ErrInvalidIdentifier is returned when an identifier has no acceptable shape.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrRequiredAnswersMissing is returned when completion would leave a required question empty.
	ErrRequiredAnswersMissing = errors.New("required answers missing")
	// ErrUnknownQuestion is returned for an answer keyed by a question the survey does not have.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrInvalidAnswer is returned when a value violates the question's constraints.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrInvalidStatusTransition is returned for a transition the state tables do not allow.
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	// ErrInvalidSurvey is returned when a survey definition fails validation.
	ErrInvalidSurvey = errors.New("invalid survey")
	// ErrCreatorNameTaken is returned when a creator name already belongs to another owner.
	ErrCreatorNameTaken = errors.New("creator name taken")
)
