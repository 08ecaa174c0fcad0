// Package messenger sends creator notifications through the messenger gateway.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

const (
	discordAttempts = 3
	discordDelay    = 200 * time.Millisecond
)

// Config defines the gateway endpoint and destinations.
type Config struct {
	Endpoint           string
	DiscordDestination string
	SlackDestination   string
	DashboardBaseURL   string
	HTTPClient         *http.Client
	Logger             *logrus.Logger
	// Failures receives a record for every notification that no destination accepted. Optional.
	Failures application.RecordStore
}

// Notifier implements application.CompletionNotifier. Discord is tried first with
// retries, Slack once as a fallback; when both fail the payload is stored in
// failed_notifications for later replay.
type Notifier struct {
	endpoint         string
	discord          string
	slack            string
	dashboardBaseURL string
	httpClient       *http.Client
	logger           *logrus.Logger
	failures         application.RecordStore
	now              func() time.Time
	sleep            func(time.Duration)
}

func New(cfg Config) *Notifier {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Notifier{
		endpoint:         strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		discord:          strings.TrimSpace(cfg.DiscordDestination),
		slack:            strings.TrimSpace(cfg.SlackDestination),
		dashboardBaseURL: strings.TrimRight(strings.TrimSpace(cfg.DashboardBaseURL), "/"),
		httpClient:       client,
		logger:           logger,
		failures:         cfg.Failures,
		now:              time.Now,
		sleep:            time.Sleep,
	}
}

// NotifyCompletion tells the creator channels about a completed response.
func (n *Notifier) NotifyCompletion(ctx context.Context, response domain.Response) {
	if n.discord == "" && n.slack == "" {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	identifier := response.SurveyID.String()

	var discordErr, slackErr error
	attempts := 0

	if n.discord != "" {
		discordErr = n.sendWithRetry(ctx, n.discord, identifier, buildDiscordMessage(n.dashboardBaseURL, response), discordAttempts, discordDelay)
		attempts += discordAttempts
		if discordErr == nil {
			return
		}
		n.logger.WithError(discordErr).WithField("survey_id", identifier).Warn("Discord通知の送信に失敗")
	}

	if n.slack != "" {
		slackErr = n.sendWithRetry(ctx, n.slack, identifier, buildSlackMessage(n.dashboardBaseURL, response), 1, 0)
		attempts++
		if slackErr == nil {
			return
		}
		n.logger.WithError(slackErr).WithField("survey_id", identifier).Warn("Slack通知の送信に失敗")
	}

	n.persistFailure(ctx, response, errors.Join(discordErr, slackErr), attempts)
}

func buildDiscordMessage(baseURL string, response domain.Response) string {
	var b strings.Builder
	b.WriteString("**新しい回答が完了しました。**\n")
	b.WriteString(fmt.Sprintf("- アンケート: %s\n", response.SurveyID))
	b.WriteString(fmt.Sprintf("- 回答ID: %s\n", response.ID))
	b.WriteString(fmt.Sprintf("- 回答数: %d\n", len(response.Answers)))
	if link := dashboardLink(baseURL, response); link != "" {
		b.WriteString(fmt.Sprintf("[ダッシュボードで確認](%s)\n", link))
	}
	return b.String()
}

func buildSlackMessage(baseURL string, response domain.Response) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(":white_check_mark: アンケート %s に新しい回答があります。\n", response.SurveyID))
	b.WriteString(fmt.Sprintf("回答ID: %s (%d 件)\n", response.ID, len(response.Answers)))
	if link := dashboardLink(baseURL, response); link != "" {
		b.WriteString(fmt.Sprintf("ダッシュボード: %s\n", link))
	}
	return b.String()
}

func dashboardLink(baseURL string, response domain.Response) string {
	if baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/surveys/%s/responses", baseURL, response.SurveyID)
}

func (n *Notifier) sendWithRetry(ctx context.Context, destination, userID, text string, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := n.send(ctx, destination, userID, text); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if delay > 0 && i < attempts-1 {
			n.sleep(delay)
		}
	}
	return lastErr
}

func (n *Notifier) send(ctx context.Context, destination, userID, text string) error {
	payload := map[string]any{
		"userId":      userID,
		"text":        text,
		"destination": destination,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("メッセンジャー送信用ペイロードの作成に失敗: %w", err)
	}

	timeout := n.httpClient.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("メッセンジャー送信リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("メッセンジャー送信リクエストに失敗: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("メッセンジャー送信でエラーが発生: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}

func (n *Notifier) persistFailure(ctx context.Context, response domain.Response, cause error, attempts int) {
	if n.failures == nil || cause == nil {
		return
	}
	now := application.FormatTimestamp(n.now())
	rec := application.Record{
		"target": "completion_notification",
		"payload": map[string]any{
			"surveyId":    response.SurveyID.String(),
			"responseId":  response.ID,
			"answerCount": len(response.Answers),
		},
		"error":       cause.Error(),
		"attempts":    attempts,
		"status":      "pending",
		"createdAt":   now,
		"lastTriedAt": now,
	}
	if _, err := n.failures.Insert(ctx, application.CollectionFailedNotifications, rec); err != nil {
		n.logger.WithError(err).Error("failed_notifications への保存に失敗")
	}
}
