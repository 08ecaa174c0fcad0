package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

// CreateSurveyCommand carries the creator's input for a new survey.
type CreateSurveyCommand struct {
	// OwnerID is the authenticated creator's subject.
	OwnerID     string
	Title       string
	Language    string
	CreatorName string
	Status      domain.SurveyStatus
	Questions   []domain.Question
}

// SurveyService covers the creator-side survey use cases.
type SurveyService struct {
	store    RecordStore
	resolver *Resolver
	issuer   *IdentifierIssuer
	now      func() time.Time
	newID    func() string
}

// SurveyOption customises a SurveyService.
type SurveyOption func(*SurveyService)

func WithSurveyClock(now func() time.Time) SurveyOption {
	return func(s *SurveyService) { s.now = now }
}

func WithSurveyIDSource(newID func() string) SurveyOption {
	return func(s *SurveyService) { s.newID = newID }
}

func NewSurveyService(store RecordStore, resolver *Resolver, issuer *IdentifierIssuer, opts ...SurveyOption) *SurveyService {
	s := &SurveyService{
		store:    store,
		resolver: resolver,
		issuer:   issuer,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the definition, issues a short code (and a creator alias when
// none is given) and stores the survey. Status defaults to draft.
func (s *SurveyService) Create(ctx context.Context, cmd CreateSurveyCommand) (*domain.Survey, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidSurvey)
	}
	if err := domain.ValidateQuestions(cmd.Questions); err != nil {
		return nil, err
	}
	status := cmd.Status
	if status == "" {
		status = domain.SurveyDraft
	}
	if status == domain.SurveyClosed {
		return nil, fmt.Errorf("%w: a new survey cannot start closed", domain.ErrInvalidStatusTransition)
	}

	id, err := domain.ParseSurveyID(s.newID())
	if err != nil {
		return nil, err
	}
	code, err := s.issuer.IssueShortCode(ctx)
	if err != nil {
		return nil, err
	}
	owner := strings.TrimSpace(cmd.OwnerID)
	creator := strings.TrimSpace(cmd.CreatorName)
	if creator == "" {
		creator, err = s.issuer.IssueCreatorAlias(ctx, cmd.Language)
		if err != nil {
			return nil, err
		}
	} else if err := s.claimCreatorName(ctx, owner, creator); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	survey := &domain.Survey{
		ID:          id,
		ShortCode:   code,
		OwnerID:     owner,
		CreatorName: creator,
		Title:       title,
		Language:    strings.TrimSpace(cmd.Language),
		Status:      status,
		Questions:   append([]domain.Question(nil), cmd.Questions...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.store.Insert(ctx, CollectionSurveys, surveyToRecord(survey)); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	return survey, nil
}

// Detail resolves any survey reference owned by owner. Surveys of other
// owners are reported as not found.
func (s *SurveyService) Detail(ctx context.Context, owner, ref string) (*domain.Survey, error) {
	survey, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != owner {
		return nil, fmt.Errorf("%w: %q", domain.ErrSurveyNotFound, ref)
	}
	return survey, nil
}

// ChangeStatus moves a survey along draft -> active -> closed.
func (s *SurveyService) ChangeStatus(ctx context.Context, owner, ref string, next domain.SurveyStatus) (*domain.Survey, error) {
	survey, err := s.Detail(ctx, owner, ref)
	if err != nil {
		return nil, err
	}
	if err := survey.Status.TransitionTo(next); err != nil {
		return nil, err
	}
	return s.update(ctx, survey, Record{FieldStatus: string(next)})
}

// ReorderQuestions replaces the question order. order must list every question id once.
func (s *SurveyService) ReorderQuestions(ctx context.Context, owner, ref string, order []string) (*domain.Survey, error) {
	survey, err := s.Detail(ctx, owner, ref)
	if err != nil {
		return nil, err
	}
	questions, err := survey.Reordered(order)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, survey, Record{FieldQuestions: questionsToRecord(questions)})
}

// ListByCreator returns owner's surveys published under creatorName, newest first.
func (s *SurveyService) ListByCreator(ctx context.Context, owner, creatorName string) ([]domain.Survey, error) {
	creatorName = strings.TrimSpace(creatorName)
	if creatorName == "" {
		return []domain.Survey{}, nil
	}
	recs, err := s.store.FindMany(ctx, CollectionSurveys,
		And{
			Left:  Eq{Field: FieldCreatorName, Value: creatorName},
			Right: Eq{Field: FieldOwnerID, Value: owner},
		},
		&OrderBy{Field: FieldCreatedAt, Desc: true})
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	out := make([]domain.Survey, 0, len(recs))
	for _, rec := range recs {
		survey, err := surveyFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *survey)
	}
	return out, nil
}

// claimCreatorName fails when name is already used by a survey of another owner.
func (s *SurveyService) claimCreatorName(ctx context.Context, owner, name string) error {
	rec, err := s.store.FindOne(ctx, CollectionSurveys, Eq{Field: FieldCreatorName, Value: name})
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check creator name: %w", err)
	}
	if asString(rec[FieldOwnerID]) != owner {
		return fmt.Errorf("%w: %q", domain.ErrCreatorNameTaken, name)
	}
	return nil
}

// update is guarded on the status read during resolution so a concurrent status
// change is reported instead of overwritten.
func (s *SurveyService) update(ctx context.Context, survey *domain.Survey, fields Record) (*domain.Survey, error) {
	fields[FieldUpdatedAt] = FormatTimestamp(s.now())
	guard := Eq{Field: FieldStatus, Value: string(survey.Status)}
	rec, err := s.store.Update(ctx, CollectionSurveys, survey.ID.String(), guard, fields)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return nil, fmt.Errorf("%w: %s", domain.ErrSurveyNotFound, survey.ID)
	case errors.Is(err, ErrRecordConflict):
		return nil, fmt.Errorf("%w: survey %s changed concurrently", domain.ErrInvalidStatusTransition, survey.ID)
	case err != nil:
		return nil, fmt.Errorf("update survey %s: %w", survey.ID, err)
	}
	return surveyFromRecord(rec)
}
