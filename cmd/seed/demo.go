package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

type demoOptions struct {
	surveyCount   int
	responseCount int
	creatorName   string
	ownerID       string
	language      string
	randomSeed    uint64
}

func demoCmd() *cobra.Command {
	opts := demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create active demo surveys with direct submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			return runDemo(cmd, svc, opts)
		},
	}

	cmd.Flags().IntVar(&opts.surveyCount, "surveys", 3, "number of surveys to create")
	cmd.Flags().IntVar(&opts.responseCount, "responses", 10, "submissions per survey")
	cmd.Flags().StringVar(&opts.creatorName, "creator", "", "creator name (issued when empty)")
	cmd.Flags().StringVar(&opts.ownerID, "owner", "", "token subject of the creator who owns the surveys")
	cmd.Flags().StringVar(&opts.language, "lang", "ja", "survey language tag")
	cmd.Flags().Uint64Var(&opts.randomSeed, "seed", uint64(time.Now().UnixNano()), "random seed for answers")
	return cmd
}

func runDemo(cmd *cobra.Command, svc *services, opts demoOptions) error {
	ctx := cmd.Context()
	rng := rand.New(rand.NewPCG(opts.randomSeed, opts.randomSeed^0x9e3779b97f4a7c15))
	out := cmd.OutOrStdout()

	for i := 0; i < opts.surveyCount; i++ {
		template := demoTemplates[i%len(demoTemplates)]
		survey, err := svc.surveys.Create(ctx, application.CreateSurveyCommand{
			OwnerID:     opts.ownerID,
			Title:       fmt.Sprintf("%s #%d", template.title, i+1),
			Language:    opts.language,
			CreatorName: opts.creatorName,
			Status:      domain.SurveyActive,
			Questions:   template.questions,
		})
		if err != nil {
			return fmt.Errorf("create survey %d: %w", i+1, err)
		}

		completed := 0
		for j := 0; j < opts.responseCount; j++ {
			status := domain.ResponseCompleted
			if rng.IntN(4) == 0 {
				status = domain.ResponsePartial
			}
			answers := randomAnswers(rng, survey.Questions, status == domain.ResponseCompleted)
			respondent := fmt.Sprintf("demo-respondent-%03d", j+1)
			if _, err := svc.lifecycle.SubmitDirect(ctx, survey, answers, status, respondent); err != nil {
				return fmt.Errorf("submit to %s: %w", survey.ShortCode, err)
			}
			if status == domain.ResponseCompleted {
				completed++
			}
		}

		svc.log.WithField("survey_id", survey.ID.String()).
			WithField("short_code", survey.ShortCode).
			WithField("completed", completed).
			Info("デモアンケートを作成")
		fmt.Fprintf(out, "%s\t%s\t%s\t%d responses\n", survey.ShortCode, survey.ID, survey.CreatorName, opts.responseCount)
	}
	return nil
}

// randomAnswers fills every required question and, for partial submissions,
// leaves a random tail unanswered.
func randomAnswers(rng *rand.Rand, questions []domain.Question, complete bool) map[string]any {
	cutoff := len(questions)
	if !complete && cutoff > 1 {
		cutoff = 1 + rng.IntN(cutoff-1)
	}

	answers := make(map[string]any, cutoff)
	for i, q := range questions {
		if i >= cutoff {
			break
		}
		if !q.Required && rng.IntN(3) == 0 {
			continue
		}
		answers[q.ID] = randomValue(rng, q)
	}
	return answers
}

func randomValue(rng *rand.Rand, q domain.Question) any {
	switch q.Type {
	case domain.QuestionSingleChoice:
		return q.Options[rng.IntN(len(q.Options))]
	case domain.QuestionMultipleChoice:
		picked := []any{q.Options[rng.IntN(len(q.Options))]}
		if len(q.Options) > 1 && rng.IntN(2) == 0 {
			second := q.Options[rng.IntN(len(q.Options))]
			if second != picked[0] {
				picked = append(picked, second)
			}
		}
		return picked
	case domain.QuestionRating:
		return 1 + rng.IntN(5)
	case domain.QuestionNumber:
		return rng.IntN(50)
	case domain.QuestionYesNo:
		return rng.IntN(2) == 0
	case domain.QuestionEmail:
		return fmt.Sprintf("demo%d@example.com", rng.IntN(1000))
	default:
		return demoComments[rng.IntN(len(demoComments))]
	}
}

func floatPtr(v float64) *float64 { return &v }

type demoTemplate struct {
	title     string
	questions []domain.Question
}

var demoTemplates = []demoTemplate{
	{
		title: "イベント満足度アンケート",
		questions: []domain.Question{
			{ID: "satisfaction", Type: domain.QuestionRating, Text: "イベント全体の満足度を教えてください", Required: true,
				Validation: domain.Validation{Min: floatPtr(1), Max: floatPtr(5)}},
			{ID: "favorite", Type: domain.QuestionSingleChoice, Text: "一番良かったセッションは？", Required: true,
				Options: []string{"基調講演", "ハンズオン", "パネル", "懇親会"}},
			{ID: "again", Type: domain.QuestionYesNo, Text: "次回も参加したいですか？", Required: true},
			{ID: "comment", Type: domain.QuestionLongText, Text: "ご意見があればお書きください",
				Validation: domain.Validation{MaxLength: 2000}},
		},
	},
	{
		title: "Product feedback",
		questions: []domain.Question{
			{ID: "usage", Type: domain.QuestionMultipleChoice, Text: "Which features do you use?", Required: true,
				Options: []string{"Dashboard", "Reports", "Exports", "API"}},
			{ID: "hours", Type: domain.QuestionNumber, Text: "Hours per week spent in the product",
				Validation: domain.Validation{Min: floatPtr(0), Max: floatPtr(168)}},
			{ID: "contact", Type: domain.QuestionEmail, Text: "Email for follow-up"},
			{ID: "summary", Type: domain.QuestionText, Text: "One thing we should improve", Required: true,
				Validation: domain.Validation{MaxLength: 200}},
		},
	},
	{
		title: "Team retrospective",
		questions: []domain.Question{
			{ID: "mood", Type: domain.QuestionRating, Text: "How did this sprint feel?", Required: true,
				Validation: domain.Validation{Min: floatPtr(1), Max: floatPtr(5)}},
			{ID: "keep", Type: domain.QuestionText, Text: "What should we keep doing?", Required: true},
			{ID: "change", Type: domain.QuestionText, Text: "What should we change?"},
		},
	},
}

var demoComments = []string{
	"とても良かったです",
	"Clear and well organised",
	"もう少し時間が欲しかった",
	"Looking forward to the next one",
	"特になし",
}
