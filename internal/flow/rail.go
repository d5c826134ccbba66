package flow

import (
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/risk"
)

// RailStep is one entry of the progress rail shown above every stage after
// auth.
type RailStep struct {
	ID     models.Step `json:"id"`
	Label  string      `json:"label"`
	Done   bool        `json:"done"`
	Active bool        `json:"active"`
}

type SubStep struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	Done   bool   `json:"done"`
	Active bool   `json:"active"`
}

var railLabels = []struct {
	id    models.Step
	label string
}{
	{models.StepKYC, "KYC Details"},
	{models.StepRisk, "Risk Profiling"},
	{models.StepAssessment, "Suitability"},
	{models.StepDocs, "Upload Docs"},
	{models.StepPlan, "Select Plan"},
	{models.StepSign, "Agreement"},
	{models.StepPayment, "Payment"},
}

var subStepLabels = map[int]string{
	models.KYCPersonal:     "Personal",
	models.KYCAddress:      "Address & Contact",
	models.KYCProfessional: "Professional",
	models.KYCReview:       "Review",
}

// Rail derives per-stage completion from s. It reads state only and never
// feeds back into the transition guards.
func Rail(s models.OnboardingState) []RailStep {
	done := map[models.Step]bool{
		models.StepKYC:        s.KYCComplete(),
		models.StepRisk:       risk.AllAnswered(s.UserData.RiskAnswers),
		models.StepAssessment: s.Flags.AssessmentAck,
		models.StepDocs:       s.DocumentsComplete(),
		models.StepPlan:       s.UserData.SelectedPlan != nil && s.UserData.SelectedPlan.Title != "",
		models.StepSign:       s.Flags.AgreementSigned,
		models.StepPayment:    s.Flags.PaymentDone,
	}

	rail := make([]RailStep, len(railLabels))
	for i, entry := range railLabels {
		rail[i] = RailStep{
			ID:     entry.id,
			Label:  entry.label,
			Done:   done[entry.id],
			Active: entry.id == s.CurrentStep,
		}
	}
	return rail
}

func SubSteps(s models.OnboardingState) []SubStep {
	steps := make([]SubStep, 0, len(subStepLabels))
	for n := models.KYCPersonal; n <= models.KYCReview; n++ {
		steps = append(steps, SubStep{
			Number: n,
			Label:  subStepLabels[n],
			Done:   s.KYCSubStepStatus[n],
			Active: s.CurrentStep == models.StepKYC && s.KYCSubStep == n,
		})
	}
	return steps
}
