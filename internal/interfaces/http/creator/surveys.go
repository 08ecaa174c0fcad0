package creator

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	"github.com/sngm3741/chat-survey/api/internal/logger"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// surveyCreateHandler creates a survey owned by the token's subject. Without
// creatorName in the body the token's alias is used, and without either an
// alias is issued. A body creatorName must match the token's alias when it has one.
func (h *Handler) surveyCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		creator, ok := h.currentCreator(w, r, log)
		if !ok {
			return
		}

		var req createSurveyRequest
		if err := common.DecodeJSON(r, &req, false); err != nil {
			common.WriteBadRequest(log, w, "invalid_json", "リクエスト形式が不正です", err.Error())
			return
		}
		if problems := h.validator.Validate(req); len(problems) > 0 {
			common.WriteBadRequest(log, w, "validation_failed", "入力内容に誤りがあります", problems...)
			return
		}

		if name := strings.TrimSpace(req.CreatorName); name != "" && creator.Alias != "" && name != creator.Alias {
			log.WithField("creator_id", creator.ID).Warn("トークンと異なるクリエイター名での作成を拒否")
			common.WriteJSON(log, w, http.StatusForbidden, common.ErrorBody{
				Error: "クリエイター名はトークンのエイリアスと一致する必要があります",
				Code:  "creator_mismatch",
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.surveys.Create(ctx, req.command(creator))
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		log.WithField("survey_id", survey.ID.String()).WithField("short_code", survey.ShortCode).Info("アンケートを作成")
		common.WriteJSON(log, w, http.StatusCreated, common.NewCreatorSurveyView(survey, h.location))
	}
}

func (h *Handler) surveyDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		creator, ok := h.currentCreator(w, r, log)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.surveys.Detail(ctx, creator.ID, chi.URLParam(r, "ref"))
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		common.WriteJSON(log, w, http.StatusOK, common.NewCreatorSurveyView(survey, h.location))
	}
}

func (h *Handler) surveyStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		creator, ok := h.currentCreator(w, r, log)
		if !ok {
			return
		}

		var req statusRequest
		if err := common.DecodeJSON(r, &req, false); err != nil {
			common.WriteBadRequest(log, w, "invalid_json", "リクエスト形式が不正です", err.Error())
			return
		}
		if problems := h.validator.Validate(req); len(problems) > 0 {
			common.WriteBadRequest(log, w, "validation_failed", "入力内容に誤りがあります", problems...)
			return
		}
		next, err := domain.ParseSurveyStatus(req.Status)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.surveys.ChangeStatus(ctx, creator.ID, chi.URLParam(r, "ref"), next)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		common.WriteJSON(log, w, http.StatusOK, common.NewCreatorSurveyView(survey, h.location))
	}
}

func (h *Handler) surveyReorderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		creator, ok := h.currentCreator(w, r, log)
		if !ok {
			return
		}

		var req reorderRequest
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

		survey, err := h.surveys.ReorderQuestions(ctx, creator.ID, chi.URLParam(r, "ref"), req.Order)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		common.WriteJSON(log, w, http.StatusOK, common.NewCreatorSurveyView(survey, h.location))
	}
}

// surveyResponsesHandler resolves the reference, then lists by the canonical id only.
func (h *Handler) surveyResponsesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		creator, ok := h.currentCreator(w, r, log)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.surveys.Detail(ctx, creator.ID, chi.URLParam(r, "ref"))
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		responses, err := h.responses.ListForSurvey(ctx, survey.ID)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		paging := common.ParsePaging(r.URL.Query(), defaultResponsePageLimit)
		start, end := paging.Window(len(responses))
		items := make([]common.ResponseView, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, common.NewResponseView(&responses[i], h.location))
		}
		common.WriteJSON(log, w, http.StatusOK, responseListResponse{
			SurveyID: survey.ID.String(),
			Items:    items,
			Paging:   paging,
		})
	}
}

// creatorSurveysHandler lists only the caller's own surveys under the alias.
func (h *Handler) creatorSurveysHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		creator, ok := h.currentCreator(w, r, log)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		surveys, err := h.surveys.ListByCreator(ctx, creator.ID, chi.URLParam(r, "alias"))
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		paging := common.ParsePaging(r.URL.Query(), defaultSurveyPageLimit)
		start, end := paging.Window(len(surveys))
		items := make([]common.SurveyView, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, common.NewCreatorSurveyView(&surveys[i], h.location))
		}
		common.WriteJSON(log, w, http.StatusOK, surveyListResponse{Items: items, Paging: paging})
	}
}
