package public

import (
	"context"
	"net/http"

	"github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	"github.com/sngm3741/chat-survey/api/internal/logger"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// submissionRequest is the form-mode one-shot payload. SurveyID may be a short code.
type submissionRequest struct {
	SurveyID     string         `json:"survey_id" validate:"required,max=64"`
	Answers      map[string]any `json:"answers" validate:"required"`
	Status       string         `json:"status" validate:"required,oneof=completed partial"`
	RespondentID string         `json:"respondent_id" validate:"omitempty,max=128"`
}

func (h *Handler) submissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)

		var req submissionRequest
		if err := common.DecodeJSON(r, &req, false); err != nil {
			common.WriteBadRequest(log, w, "invalid_json", "リクエスト形式が不正です", err.Error())
			return
		}
		if problems := h.validator.Validate(req); len(problems) > 0 {
			common.WriteBadRequest(log, w, "validation_failed", "入力内容に誤りがあります", problems...)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.resolver.Resolve(ctx, req.SurveyID)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		resp, err := h.lifecycle.SubmitDirect(ctx, survey, req.Answers, domain.ResponseStatus(req.Status), req.RespondentID)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		h.notifyCompleted(resp)
		log.WithField("survey_id", survey.ID.String()).WithField("status", resp.Status).Info("フォーム回答を保存")
		common.WriteJSON(log, w, http.StatusCreated, common.NewResponseView(resp, h.location))
	}
}
