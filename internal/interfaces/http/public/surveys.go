package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	"github.com/sngm3741/chat-survey/api/internal/logger"
)

// surveyDetailHandler resolves a survey id or short code and returns the questions.
func (h *Handler) surveyDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.resolver.Resolve(ctx, chi.URLParam(r, "ref"))
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		common.WriteJSON(log, w, http.StatusOK, common.NewSurveyView(survey))
	}
}

type startResponseRequest struct {
	RespondentID string `json:"respondent_id" validate:"omitempty,max=128"`
}

// responseStartHandler opens a response. The URL reference is resolved first and
// only the resolved survey is handed on.
func (h *Handler) responseStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)

		var req startResponseRequest
		if err := common.DecodeJSON(r, &req, true); err != nil {
			common.WriteBadRequest(log, w, "invalid_json", "リクエスト形式が不正です", err.Error())
			return
		}
		if problems := h.validator.Validate(req); len(problems) > 0 {
			common.WriteBadRequest(log, w, "validation_failed", "入力内容に誤りがあります", problems...)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.resolver.Resolve(ctx, chi.URLParam(r, "ref"))
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		resp, err := h.lifecycle.Start(ctx, survey, req.RespondentID)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		log.WithField("survey_id", survey.ID.String()).WithField("response_id", resp.ID).Info("回答を開始")
		common.WriteJSON(log, w, http.StatusCreated, map[string]any{
			"response": common.NewResponseView(resp, h.location),
			"survey":   common.NewSurveyView(survey),
		})
	}
}
