package flow

import (
	"testing"

	"github.com/cradoe/onboard/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanAdvance(t *testing.T) {
	allAnswered := func(s *models.OnboardingState) {
		for id, answer := range map[string]models.RiskAnswer{
			"age":        models.ChoiceAnswer(0),
			"experience": models.ChoiceAnswer(0),
			"drawdown":   models.ChoiceAnswer(0),
			"horizon":    models.ChoiceAnswer(0),
			"income":     models.ChoiceAnswer(0),
			"goals":      models.SelectionAnswer("Wealth creation"),
		} {
			s.UserData.RiskAnswers[id] = answer
		}
	}

	tests := []struct {
		name    string
		from    models.Step
		to      models.Step
		prepare func(s *models.OnboardingState)
		wantErr bool
	}{
		{name: "auth cannot advance", from: models.StepAuth, to: models.StepKYC, wantErr: true},
		{name: "kyc without review", from: models.StepKYC, to: models.StepRisk, wantErr: true},
		{name: "kyc after review", from: models.StepKYC, to: models.StepRisk, prepare: func(s *models.OnboardingState) { s.KYCSubStepStatus[models.KYCReview] = true }},
		{name: "risk unanswered", from: models.StepRisk, to: models.StepAssessment, wantErr: true},
		{name: "risk answered", from: models.StepRisk, to: models.StepAssessment, prepare: allAnswered},
		{name: "assessment unacknowledged", from: models.StepAssessment, to: models.StepDocs, wantErr: true},
		{name: "assessment acknowledged", from: models.StepAssessment, to: models.StepDocs, prepare: func(s *models.OnboardingState) { s.Flags.AssessmentAck = true }},
		{name: "docs missing", from: models.StepDocs, to: models.StepPlan, prepare: func(s *models.OnboardingState) { s.UserData.DocsStatus["pan"] = true }, wantErr: true},
		{name: "docs uploaded", from: models.StepDocs, to: models.StepPlan, prepare: func(s *models.OnboardingState) {
			for _, slot := range models.RequiredDocuments {
				s.UserData.DocsStatus[slot.ID] = true
			}
		}},
		{name: "no plan", from: models.StepPlan, to: models.StepSign, wantErr: true},
		{name: "plan chosen", from: models.StepPlan, to: models.StepSign, prepare: func(s *models.OnboardingState) { s.UserData.SelectedPlan = &models.SelectedPlan{Key: "standard"} }},
		{name: "unsigned", from: models.StepSign, to: models.StepPayment, wantErr: true},
		{name: "signed", from: models.StepSign, to: models.StepPayment, prepare: func(s *models.OnboardingState) { s.Flags.AgreementSigned = true }},
		{name: "payment is terminal", from: models.StepPayment, to: models.StepPayment, wantErr: true},
		{name: "backwards", from: models.StepDocs, to: models.StepRisk, wantErr: true},
		{name: "skip ahead", from: models.StepPlan, to: models.StepPayment, prepare: func(s *models.OnboardingState) { s.UserData.SelectedPlan = &models.SelectedPlan{Key: "standard"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.FreshState()
			s.CurrentStep = tt.from
			if tt.prepare != nil {
				tt.prepare(&s)
			}

			err := CanAdvance(s, tt.to)
			if tt.wantErr {
				var transitionErr *TransitionError
				assert.ErrorAs(t, err, &transitionErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
