package public

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// SurveyResolver turns a reference from the URL or body into a canonical survey.
type SurveyResolver interface {
	Resolve(ctx context.Context, raw string) (*domain.Survey, error)
}

// ResponseLifecycle is the respondent-side use case set.
type ResponseLifecycle interface {
	Start(ctx context.Context, survey *domain.Survey, respondentID string) (*domain.Response, error)
	RecordAnswer(ctx context.Context, responseID, questionID string, value any) (*domain.Response, error)
	GoBack(ctx context.Context, responseID string) (*domain.Response, error)
	Complete(ctx context.Context, responseID string) (*domain.Response, error)
	Abandon(ctx context.Context, responseID string) (*domain.Response, error)
	SubmitDirect(ctx context.Context, survey *domain.Survey, answers map[string]any, status domain.ResponseStatus, respondentID string) (*domain.Response, error)
	Get(ctx context.Context, responseID string) (*domain.Response, error)
}

// Handler wires public respondent endpoints to application services.
type Handler struct {
	logger    logrus.FieldLogger
	resolver  SurveyResolver
	lifecycle ResponseLifecycle
	notifier  application.CompletionNotifier
	pending   *sync.WaitGroup
	validator *common.Validator
	location  *time.Location
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger    logrus.FieldLogger
	Resolver  SurveyResolver
	Lifecycle ResponseLifecycle
	// Notifier is optional.
	Notifier application.CompletionNotifier
	// Pending, when set, tracks notifications still in flight.
	Pending  *sync.WaitGroup
	Location *time.Location
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		logger:    logger,
		resolver:  cfg.Resolver,
		lifecycle: cfg.Lifecycle,
		notifier:  cfg.Notifier,
		pending:   cfg.Pending,
		validator: common.NewValidator(),
		location:  cfg.Location,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/surveys/{ref}", h.surveyDetailHandler())
	r.Post("/surveys/{ref}/responses", h.responseStartHandler())
	r.Get("/responses/{id}", h.responseDetailHandler())
	r.Post("/responses/{id}/answers", h.responseAnswerHandler())
	r.Post("/responses/{id}/back", h.responseBackHandler())
	r.Post("/responses/{id}/complete", h.responseCompleteHandler())
	r.Post("/responses/{id}/abandon", h.responseAbandonHandler())
	r.Post("/submissions", h.submissionHandler())
}

// notifyCompleted runs detached from the request context.
func (h *Handler) notifyCompleted(resp *domain.Response) {
	if h.notifier == nil || resp == nil || resp.Status != domain.ResponseCompleted {
		return
	}
	if h.pending != nil {
		h.pending.Add(1)
	}
	response := *resp
	go func() {
		if h.pending != nil {
			defer h.pending.Done()
		}
		h.notifier.NotifyCompletion(context.Background(), response)
	}()
}
