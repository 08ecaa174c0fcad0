package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	"github.com/sngm3741/chat-survey/api/internal/logger"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

type answerRequest struct {
	QuestionID string `json:"question_id" validate:"required,max=128"`
	Value      any    `json:"value"`
}

func (h *Handler) responseDetailHandler() http.HandlerFunc {
	return h.responseAction(func(ctx context.Context, id string) (*domain.Response, error) {
		return h.lifecycle.Get(ctx, id)
	})
}

func (h *Handler) responseAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)

		var req answerRequest
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

		resp, err := h.lifecycle.RecordAnswer(ctx, chi.URLParam(r, "id"), req.QuestionID, req.Value)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		common.WriteJSON(log, w, http.StatusOK, common.NewResponseView(resp, h.location))
	}
}

func (h *Handler) responseBackHandler() http.HandlerFunc {
	return h.responseAction(func(ctx context.Context, id string) (*domain.Response, error) {
		return h.lifecycle.GoBack(ctx, id)
	})
}

func (h *Handler) responseCompleteHandler() http.HandlerFunc {
	return h.responseAction(func(ctx context.Context, id string) (*domain.Response, error) {
		resp, err := h.lifecycle.Complete(ctx, id)
		if err == nil {
			h.notifyCompleted(resp)
		}
		return resp, err
	})
}

func (h *Handler) responseAbandonHandler() http.HandlerFunc {
	return h.responseAction(func(ctx context.Context, id string) (*domain.Response, error) {
		return h.lifecycle.Abandon(ctx, id)
	})
}

// responseAction handles the body-less response endpoints.
func (h *Handler) responseAction(action func(ctx context.Context, id string) (*domain.Response, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		resp, err := action(ctx, chi.URLParam(r, "id"))
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		common.WriteJSON(log, w, http.StatusOK, common.NewResponseView(resp, h.location))
	}
}
