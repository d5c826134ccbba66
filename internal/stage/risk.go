package stage

import (
	"context"

	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/risk"
)

type RiskView struct {
	Questions  []risk.Question              `json:"questions"`
	Answers    map[string]models.RiskAnswer `json:"answers"`
	Assessment risk.Assessment              `json:"assessment"`
	MaxScore   int                          `json:"maxScore"`
}

func riskView(s models.OnboardingState) RiskView {
	return RiskView{
		Questions:  risk.Questions,
		Answers:    s.UserData.RiskAnswers,
		Assessment: risk.Assess(s.UserData.RiskAnswers),
		MaxScore:   risk.MaxScore(),
	}
}

func (svc *Service) Risk(sess *Session) (RiskView, error) {
	s, err := at(sess, models.StepRisk)
	if err != nil {
		return RiskView{}, err
	}
	return riskView(s), nil
}

// AnswerRisk records one answer straight away; score and profile are
// recomputed on the same write. A null answer clears the question.
func (svc *Service) AnswerRisk(ctx context.Context, sess *Session, id string, answer models.RiskAnswer) (RiskView, error) {
	if _, err := at(sess, models.StepRisk); err != nil {
		return RiskView{}, err
	}

	if err := risk.Validate(id, answer); err != nil {
		return RiskView{}, &flow.ValidationError{Fields: map[string]string{id: err.Error()}}
	}

	s, err := sess.Flow.PersistAt(ctx, models.StepRisk, func(s models.OnboardingState) models.OnboardingState {
		if answer.Choice == nil && answer.Selections == nil {
			delete(s.UserData.RiskAnswers, id)
		} else {
			s.UserData.RiskAnswers[id] = answer.Clone()
		}
		return s
	})
	if err != nil {
		return RiskView{}, err
	}

	return riskView(s), nil
}

// FinishRisk moves on to the suitability assessment once every question has
// an answer.
func (svc *Service) FinishRisk(ctx context.Context, sess *Session) (models.OnboardingState, error) {
	if err := sess.Flow.Advance(ctx, models.StepAssessment); err != nil {
		return sess.Flow.State(), err
	}
	return sess.Flow.State(), nil
}
