package creator

import (
	"strings"

	"github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

type validationPayload struct {
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	MaxLength int      `json:"maxLength" validate:"gte=0"`
	Pattern   string   `json:"pattern" validate:"omitempty,max=500"`
}

type questionPayload struct {
	ID         string             `json:"id" validate:"required,max=64"`
	Type       string             `json:"type" validate:"required,oneof=text long_text single_choice multiple_choice rating number email yes_no"`
	Text       string             `json:"text" validate:"required,max=1000"`
	Required   bool               `json:"required"`
	Options    []string           `json:"options" validate:"omitempty,max=50,dive,required,max=200"`
	Validation *validationPayload `json:"validation"`
}

type createSurveyRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Language    string            `json:"language" validate:"omitempty,bcp47_language_tag"`
	CreatorName string            `json:"creatorName" validate:"omitempty,max=64"`
	Status      string            `json:"status" validate:"omitempty,oneof=draft active"`
	Questions   []questionPayload `json:"questions" validate:"required,min=1,max=200,dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active closed"`
}

type reorderRequest struct {
	Order []string `json:"order" validate:"required,min=1,dive,required"`
}

const (
	defaultSurveyPageLimit   = 20
	defaultResponsePageLimit = 50
)

type surveyListResponse struct {
	Items []common.SurveyView `json:"items"`
	common.Paging
}

type responseListResponse struct {
	SurveyID string                `json:"surveyId"`
	Items    []common.ResponseView `json:"items"`
	common.Paging
}

func (req createSurveyRequest) command(creator common.Creator) application.CreateSurveyCommand {
	questions := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		question := domain.Question{
			ID:       strings.TrimSpace(q.ID),
			Type:     domain.QuestionType(q.Type),
			Text:     strings.TrimSpace(q.Text),
			Required: q.Required,
			Options:  append([]string(nil), q.Options...),
		}
		if q.Validation != nil {
			question.Validation = domain.Validation{
				Min:       q.Validation.Min,
				Max:       q.Validation.Max,
				MaxLength: q.Validation.MaxLength,
				Pattern:   q.Validation.Pattern,
			}
		}
		questions = append(questions, question)
	}
	creatorName := strings.TrimSpace(req.CreatorName)
	if creatorName == "" {
		creatorName = creator.Alias
	}
	return application.CreateSurveyCommand{
		OwnerID:     creator.ID,
		Title:       req.Title,
		Language:    req.Language,
		CreatorName: creatorName,
		Status:      domain.SurveyStatus(req.Status),
		Questions:   questions,
	}
}
