package creator

import (
	"context"
	"net/http"

	"github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	"github.com/sngm3741/chat-survey/api/internal/logger"
)

func (h *Handler) shortCodeIssueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		code, err := h.issuer.IssueShortCode(ctx)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		common.WriteJSON(log, w, http.StatusOK, map[string]string{"shortCode": code})
	}
}

// creatorAliasIssueHandler picks the word pool from ?lang=, then Accept-Language.
func (h *Handler) creatorAliasIssueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(h.logger, r)
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = r.Header.Get("Accept-Language")
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		alias, err := h.issuer.IssueCreatorAlias(ctx, lang)
		if err != nil {
			common.WriteError(log, w, err)
			return
		}
		common.WriteJSON(log, w, http.StatusOK, map[string]string{"creatorName": alias})
	}
}
