package risk

import (
	"testing"

	"github.com/cradoe/onboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answersFor(age, experience, drawdown, horizon, income int) map[string]models.RiskAnswer {
	return map[string]models.RiskAnswer{
		"age":        models.ChoiceAnswer(age),
		"experience": models.ChoiceAnswer(experience),
		"drawdown":   models.ChoiceAnswer(drawdown),
		"horizon":    models.ChoiceAnswer(horizon),
		"income":     models.ChoiceAnswer(income),
		"goals":      models.SelectionAnswer("Retirement"),
	}
}

func TestProfileBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]models.RiskAnswer
		score   int
		profile models.RiskProfile
	}{
		{"score 8 is conservative", answersFor(1, 1, 0, 0, 1), 8, models.RiskConservative},
		{"score 9 is moderate", answersFor(1, 1, 1, 0, 1), 9, models.RiskModerate},
		{"score 13 is moderate", answersFor(3, 1, 1, 1, 2), 13, models.RiskModerate},
		{"score 14 is aggressive", answersFor(3, 2, 1, 1, 2), 14, models.RiskAggressive},
		{"max score", answersFor(3, 3, 3, 2, 2), 18, models.RiskAggressive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(tt.answers)
			assert.Equal(t, tt.score, a.Score)
			assert.Equal(t, tt.profile, a.Profile)
			assert.True(t, a.Complete())
		})
	}
}

func TestNothingAnsweredHasNoProfile(t *testing.T) {
	a := Assess(nil)
	assert.Equal(t, 0, a.Answered)
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, models.RiskProfile(""), a.Profile)

	a = Assess(map[string]models.RiskAnswer{"age": models.ChoiceAnswer(0)})
	assert.Equal(t, models.RiskConservative, a.Profile)
}

func TestAssessIsIdempotent(t *testing.T) {
	answers := answersFor(2, 0, 3, 1, 2)

	assert.Equal(t, Assess(answers), Assess(answers))
}

func TestCheckboxCountsOnlyTowardsAnswered(t *testing.T) {
	answers := map[string]models.RiskAnswer{
		"goals": models.SelectionAnswer("Tax saving", "Retirement"),
	}

	a := Assess(answers)
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, 1, a.Answered)
	assert.False(t, a.Complete())
	assert.Empty(t, a.Profile, "no scored answer yet")

	answers["goals"] = models.SelectionAnswer()
	assert.Equal(t, 0, Assess(answers).Answered)
}

func TestAllAnsweredRequiresEveryQuestion(t *testing.T) {
	answers := answersFor(0, 0, 0, 0, 0)
	assert.True(t, AllAnswered(answers))

	delete(answers, "goals")
	assert.False(t, AllAnswered(answers))
}

func TestMaxScore(t *testing.T) {
	assert.Equal(t, 18, MaxScore())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("age", models.ChoiceAnswer(3)))
	require.NoError(t, Validate("goals", models.SelectionAnswer("Retirement")))

	require.ErrorIs(t, Validate("shoe-size", models.ChoiceAnswer(0)), ErrUnknownQuestion)
	require.Error(t, Validate("age", models.ChoiceAnswer(4)))
	require.Error(t, Validate("age", models.SelectionAnswer("Above 60")))
	require.Error(t, Validate("goals", models.ChoiceAnswer(0)))
	require.Error(t, Validate("goals", models.SelectionAnswer("Lottery")))
}
