package creator

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/sngm3741/chat-survey/api/internal/interfaces/http/common"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// SurveyService is the creator-side survey use case set.
type SurveyService interface {
	Create(ctx context.Context, cmd application.CreateSurveyCommand) (*domain.Survey, error)
	Detail(ctx context.Context, owner, ref string) (*domain.Survey, error)
	ChangeStatus(ctx context.Context, owner, ref string, next domain.SurveyStatus) (*domain.Survey, error)
	ReorderQuestions(ctx context.Context, owner, ref string, order []string) (*domain.Survey, error)
	ListByCreator(ctx context.Context, owner, creatorName string) ([]domain.Survey, error)
}

// ResponseLister lists a survey's responses by canonical id.
type ResponseLister interface {
	ListForSurvey(ctx context.Context, surveyID domain.SurveyID) ([]domain.Response, error)
}

// IdentifierIssuer hands out fresh identifiers.
type IdentifierIssuer interface {
	IssueShortCode(ctx context.Context) (string, error)
	IssueCreatorAlias(ctx context.Context, languageTag string) (string, error)
}

// Handler wires creator HTTP endpoints to application services.
type Handler struct {
	logger    logrus.FieldLogger
	surveys   SurveyService
	responses ResponseLister
	issuer    IdentifierIssuer
	validator *common.Validator
	location  *time.Location
}

// Config provides dependencies for Handler.
type Config struct {
	Logger    logrus.FieldLogger
	Surveys   SurveyService
	Responses ResponseLister
	Issuer    IdentifierIssuer
	Location  *time.Location
}

// NewHandler constructs a creator HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		logger:    logger,
		surveys:   cfg.Surveys,
		responses: cfg.Responses,
		issuer:    cfg.Issuer,
		validator: common.NewValidator(),
		location:  cfg.Location,
	}
}

// Register mounts creator routes onto router. Authentication is applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/surveys", h.surveyCreateHandler())
	r.Get("/surveys/{ref}", h.surveyDetailHandler())
	r.Patch("/surveys/{ref}/status", h.surveyStatusHandler())
	r.Put("/surveys/{ref}/questions/order", h.surveyReorderHandler())
	r.Get("/surveys/{ref}/responses", h.surveyResponsesHandler())
	r.Get("/creators/{alias}/surveys", h.creatorSurveysHandler())
	r.Post("/identifiers/short-codes", h.shortCodeIssueHandler())
	r.Post("/identifiers/creator-aliases", h.creatorAliasIssueHandler())
}

// currentCreator returns the authenticated creator, answering 401 when the
// request carries none.
func (h *Handler) currentCreator(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) (common.Creator, bool) {
	creator, ok := common.CreatorFromContext(r.Context())
	if !ok || creator.ID == "" {
		common.WriteJSON(log, w, http.StatusUnauthorized, common.ErrorBody{Error: "認証が必要です", Code: "unauthorized"})
		return common.Creator{}, false
	}
	return creator, true
}
