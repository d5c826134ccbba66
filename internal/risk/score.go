package risk

import (
	"errors"
	"fmt"

	"github.com/cradoe/onboard/internal/models"
)

const (
	moderateFrom   = 9
	aggressiveFrom = 14
)

var ErrUnknownQuestion = errors.New("unknown risk question")

// Assessment is derived from a set of answers and never edited by hand.
type Assessment struct {
	Score    int                `json:"score"`
	Answered int                `json:"answered"`
	Total    int                `json:"total"`
	Profile  models.RiskProfile `json:"profile"`
}

func (a Assessment) Complete() bool {
	return a.Answered == a.Total
}

// ProfileFor maps a cumulative score onto a risk profile.
func ProfileFor(score int) models.RiskProfile {
	switch {
	case score < moderateFrom:
		return models.RiskConservative
	case score < aggressiveFrom:
		return models.RiskModerate
	default:
		return models.RiskAggressive
	}
}

// Assess scores answers against the questionnaire. A scored question adds its
// selected option index plus one; checkbox questions only count as answered.
// The profile stays empty until a scored question has an answer.
func Assess(answers map[string]models.RiskAnswer) Assessment {
	a := Assessment{Total: len(Questions)}
	scored := 0

	for _, q := range Questions {
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}

		if !q.Scored() {
			if len(answer.Selections) > 0 {
				a.Answered++
			}
			continue
		}

		if answer.Choice != nil {
			a.Score += *answer.Choice + 1
			a.Answered++
			scored++
		}
	}

	if scored > 0 {
		a.Profile = ProfileFor(a.Score)
	}
	return a
}

// AllAnswered reports whether every defined question has an answer.
func AllAnswered(answers map[string]models.RiskAnswer) bool {
	return Assess(answers).Complete()
}

// Validate checks an answer is well formed for its question.
func Validate(id string, answer models.RiskAnswer) error {
	q, ok := Find(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, id)
	}

	if q.Scored() {
		if answer.Selections != nil {
			return fmt.Errorf("question %q takes a single option", id)
		}
		if answer.Choice != nil && (*answer.Choice < 0 || *answer.Choice >= len(q.Options)) {
			return fmt.Errorf("option %d is out of range for question %q", *answer.Choice, id)
		}
		return nil
	}

	if answer.Choice != nil {
		return fmt.Errorf("question %q takes a list of options", id)
	}
	for _, sel := range answer.Selections {
		if !q.hasOption(sel) {
			return fmt.Errorf("%q is not an option of question %q", sel, id)
		}
	}
	return nil
}
