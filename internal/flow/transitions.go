package flow

import (
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/risk"
)

// guards holds the completion predicate a stage must satisfy before the flow
// may leave it. Auth is absent: it is only left through signup or login.
var guards = map[models.Step]struct {
	reason string
	check  func(models.OnboardingState) bool
}{
	models.StepKYC: {
		reason: "KYC review has not been confirmed",
		check:  func(s models.OnboardingState) bool { return s.KYCSubStepStatus[models.KYCReview] },
	},
	models.StepRisk: {
		reason: "not every risk question is answered",
		check:  func(s models.OnboardingState) bool { return risk.AllAnswered(s.UserData.RiskAnswers) },
	},
	models.StepAssessment: {
		reason: "the suitability assessment has not been acknowledged",
		check:  func(s models.OnboardingState) bool { return s.Flags.AssessmentAck },
	},
	models.StepDocs: {
		reason: "not every required document is uploaded",
		check:  func(s models.OnboardingState) bool { return s.DocumentsComplete() },
	},
	models.StepPlan: {
		reason: "no plan has been selected",
		check:  func(s models.OnboardingState) bool { return s.UserData.SelectedPlan != nil },
	},
	models.StepSign: {
		reason: "the agreement has not been signed",
		check:  func(s models.OnboardingState) bool { return s.Flags.AgreementSigned },
	},
}

// CanAdvance reports whether s may move to the stage to. Only the immediate
// successor of the current stage is reachable, and only once the current
// stage's guard holds.
func CanAdvance(s models.OnboardingState, to models.Step) error {
	from := s.CurrentStep

	if from == models.StepAuth {
		return &TransitionError{From: from, To: to, Reason: "sign up or log in to continue"}
	}

	next, ok := from.Next()
	if !ok {
		return &TransitionError{From: from, To: to, Reason: "stage is terminal"}
	}
	if next != to {
		return &TransitionError{From: from, To: to, Reason: "only " + string(next) + " can follow " + string(from)}
	}

	guard, ok := guards[from]
	if ok && !guard.check(s) {
		return &TransitionError{From: from, To: to, Reason: guard.reason}
	}

	return nil
}

// CanEnterSubStep reports whether the KYC sub-step n may be shown. Moving
// back is always allowed; moving forward needs every earlier sub-step done.
func CanEnterSubStep(s models.OnboardingState, n int) error {
	if s.CurrentStep != models.StepKYC {
		return &StageError{Expected: models.StepKYC, Current: s.CurrentStep}
	}

	if n < models.KYCPersonal || n > models.KYCReview {
		return &ValidationError{Fields: map[string]string{"step": "KYC step must be between 1 and 4"}}
	}

	for i := models.KYCPersonal; i < n; i++ {
		if !s.KYCSubStepStatus[i] {
			return &TransitionError{From: models.StepKYC, To: models.StepKYC, Reason: "complete the earlier KYC steps first"}
		}
	}

	return nil
}
