package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
)

func runSeed(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestDemo(t *testing.T) {
	out, err := runSeed(t, "demo", "--surveys", "4", "--responses", "6", "--seed", "7", "--creator", "demo-team")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		require.Len(t, fields, 4)
		assert.Equal(t, domain.IdentifierShortCode, domain.Classify(fields[0]))
		assert.Equal(t, domain.IdentifierUUID, domain.Classify(fields[1]))
		assert.Equal(t, "demo-team", fields[2])
		assert.Equal(t, "6 responses", fields[3])
	}
}

func TestDemo_OwnerClaimsCreatorName(t *testing.T) {
	out, err := runSeed(t, "demo", "--surveys", "2", "--responses", "1", "--creator", "demo-team", "--owner", "creator-1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestIssue(t *testing.T) {
	out, err := runSeed(t, "issue", "short-code")
	require.NoError(t, err)
	assert.Equal(t, domain.IdentifierShortCode, domain.Classify(strings.TrimSpace(out)))

	out, err = runSeed(t, "issue", "alias", "--lang", "de")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestResolve_NotFound(t *testing.T) {
	_, err := runSeed(t, "resolve", "ZZZZ")
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)

	_, err = runSeed(t, "resolve")
	assert.Error(t, err)
}

func TestRandomAnswers_SatisfyTemplates(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, template := range demoTemplates {
		require.NoError(t, domain.ValidateQuestions(template.questions), template.title)
		survey := &domain.Survey{Status: domain.SurveyActive, Questions: template.questions}
		for i := 0; i < 50; i++ {
			complete := randomAnswers(rng, template.questions, true)
			assert.NoError(t, domain.CheckAnswers(survey, complete))
			assert.Empty(t, domain.MissingRequired(template.questions, complete))

			partial := randomAnswers(rng, template.questions, false)
			assert.NoError(t, domain.CheckAnswers(survey, partial))
			assert.Less(t, len(partial), len(template.questions))
		}
	}
}
