package common

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrSurveyNotFound, http.StatusNotFound, "survey_not_found", "アンケートが見つかりません"},
	{domain.ErrResponseNotFound, http.StatusNotFound, "response_not_found", "回答が見つかりません"},
	{domain.ErrSurveyNotActive, http.StatusConflict, "survey_not_active", "このアンケートは現在回答を受け付けていません"},
	{domain.ErrResponseAlreadyTerminal, http.StatusConflict, "response_already_terminal", "この回答はすでに確定しています"},
	{domain.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition", "この状態には変更できません"},
	{domain.ErrCreatorNameTaken, http.StatusConflict, "creator_name_taken", "このクリエイター名は使用できません"},
	{domain.ErrRequiredAnswersMissing, http.StatusUnprocessableEntity, "required_answers_missing", "必須の質問に回答されていません"},
	{domain.ErrInvalidIdentifier, http.StatusBadRequest, "invalid_identifier", "識別子の形式が正しくありません"},
	{domain.ErrUnknownQuestion, http.StatusBadRequest, "unknown_question", "存在しない質問です"},
	{domain.ErrInvalidAnswer, http.StatusBadRequest, "invalid_answer", "回答の形式が正しくありません"},
	{domain.ErrInvalidSurvey, http.StatusBadRequest, "invalid_survey", "アンケートの定義が正しくありません"},
	{application.ErrRecordConflict, http.StatusConflict, "conflict", "他の更新と競合しました"},
}

// WriteError maps core errors onto HTTP statuses. Unknown errors and identifier
// space exhaustion are logged at error level and returned as a generic 500.
func WriteError(logger logrus.FieldLogger, w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrIdentifierSpaceExhausted) {
		if logger != nil {
			logger.WithError(err).Error("短縮コードの空きがありません。アルファベットまたは桁数の拡張が必要です")
		}
		WriteJSON(logger, w, http.StatusInternalServerError, ErrorBody{Error: "サーバー内部でエラーが発生しました", Code: "internal_error"})
		return
	}
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		details := []string{err.Error()}
		// Store conflicts carry driver text.
		if errors.Is(err, application.ErrRecordConflict) {
			if logger != nil {
				logger.WithError(err).Warn("ストア更新が競合")
			}
			details = nil
		}
		WriteJSON(logger, w, m.status, ErrorBody{Error: m.message, Code: m.code, Details: details})
		return
	}
	if logger != nil {
		logger.WithError(err).Error("リクエスト処理中に予期しないエラー")
	}
	WriteJSON(logger, w, http.StatusInternalServerError, ErrorBody{Error: "サーバー内部でエラーが発生しました", Code: "internal_error"})
}

// WriteBadRequest reports malformed input that never reached the core.
func WriteBadRequest(logger logrus.FieldLogger, w http.ResponseWriter, code, message string, details ...string) {
	WriteJSON(logger, w, http.StatusBadRequest, ErrorBody{Error: message, Code: code, Details: details})
}
