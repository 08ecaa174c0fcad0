package domain

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// QuestionType selects how an answer is collected and checked.
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionLongText       QuestionType = "long_text"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionRating         QuestionType = "rating"
	QuestionNumber         QuestionType = "number"
	QuestionEmail          QuestionType = "email"
	QuestionYesNo          QuestionType = "yes_no"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionLongText, QuestionSingleChoice, QuestionMultipleChoice,
		QuestionRating, QuestionNumber, QuestionEmail, QuestionYesNo:
		return true
	}
	return false
}

func (t QuestionType) IsChoice() bool {
	return t == QuestionSingleChoice || t == QuestionMultipleChoice
}

// Validation holds optional per-question constraints. Nil bounds are unset.
type Validation struct {
	Min       *float64
	Max       *float64
	MaxLength int
	// Pattern is an RE2 expression a text answer must match in full.
	Pattern string
}

// Question is one entry in a survey's ordered question list.
type Question struct {
	ID         string
	Type       QuestionType
	Text       string
	Required   bool
	Options    []string
	Validation Validation
}

// Check validates a non-empty answer value against the question. Empty values
// pass here; whether they are acceptable is decided by MissingRequired.
// Values arrive decoded from JSON, so numbers are float64 and lists are []any.
func (q Question) Check(value any) error {
	if IsEmptyAnswer(value) {
		return nil
	}
	switch q.Type {
	case QuestionText, QuestionLongText:
		s, ok := value.(string)
		if !ok {
			return q.invalid("expected text")
		}
		if q.Validation.MaxLength > 0 && utf8.RuneCountInString(s) > q.Validation.MaxLength {
			return q.invalid(fmt.Sprintf("longer than %d characters", q.Validation.MaxLength))
		}
		if q.Validation.Pattern != "" {
			re, err := regexp.Compile("^(?:" + q.Validation.Pattern + ")$")
			if err != nil || !re.MatchString(s) {
				return q.invalid("does not match the expected format")
			}
		}
	case QuestionEmail:
		s, ok := value.(string)
		if !ok {
			return q.invalid("expected an email address")
		}
		if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
			return q.invalid("malformed email address")
		}
	case QuestionSingleChoice:
		s, ok := value.(string)
		if !ok || !q.hasOption(s) {
			return q.invalid("not one of the options")
		}
	case QuestionMultipleChoice:
		items, ok := toStrings(value)
		if !ok {
			return q.invalid("expected a list of options")
		}
		for _, item := range items {
			if !q.hasOption(item) {
				return q.invalid(fmt.Sprintf("%q is not one of the options", item))
			}
		}
	case QuestionRating, QuestionNumber:
		n, ok := toFloat(value)
		if !ok {
			return q.invalid("expected a number")
		}
		if q.Validation.Min != nil && n < *q.Validation.Min {
			return q.invalid(fmt.Sprintf("below minimum %v", *q.Validation.Min))
		}
		if q.Validation.Max != nil && n > *q.Validation.Max {
			return q.invalid(fmt.Sprintf("above maximum %v", *q.Validation.Max))
		}
	case QuestionYesNo:
		if _, ok := value.(bool); !ok {
			return q.invalid("expected true or false")
		}
	}
	return nil
}

func (q Question) invalid(reason string) error {
	return fmt.Errorf("%w: question %q: %s", ErrInvalidAnswer, q.ID, reason)
}

func (q Question) hasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
