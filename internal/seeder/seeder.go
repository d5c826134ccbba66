package seeders

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/progress"
	"github.com/cradoe/onboard/internal/risk"
	"github.com/cradoe/onboard/internal/stage"
)

const (
	DemoEmail    = "demo@example.com"
	DemoMobile   = "9999999999"
	DemoPassword = "demo1234"
)

var ErrNotSeeded = errors.New("demo record could not be written to the progress store")

type Seeder struct {
	store     *progress.Store
	passwords stage.PasswordScheme
	logger    *slog.Logger
}

func New(medium progress.Medium, passwords stage.PasswordScheme, logger *slog.Logger) *Seeder {
	return &Seeder{
		store:     progress.New(medium, progress.Options{Device: "seeder", Logger: logger}),
		passwords: passwords,
		logger:    logger,
	}
}

// Run writes a demo identity that resumes at plan selection: KYC, risk
// profiling, the suitability assessment and documents are all done.
func (seeder *Seeder) Run(ctx context.Context) (models.OnboardingState, error) {
	sealed, err := seeder.passwords.Seal(DemoPassword)
	if err != nil {
		return models.OnboardingState{}, err
	}

	s := DemoState()
	s.UserData.Password = sealed

	seeder.store.SaveAll(ctx, s, s.IdentityKeys()...)
	if !seeder.store.Exists(ctx, DemoEmail) {
		return s, ErrNotSeeded
	}

	seeder.logger.Info("demo identity seeded", "email", DemoEmail, "mobile", DemoMobile, "step", string(s.CurrentStep))
	return s, nil
}

// DemoState is the demo record before its password is sealed.
func DemoState() models.OnboardingState {
	s := models.FreshState()
	s.CurrentUser = DemoEmail
	s.CurrentStep = models.StepPlan
	s.KYCSubStep = models.KYCReview
	s.EmailVerified = true
	s.MobileVerified = true
	s.Flags.AssessmentAck = true

	for i := models.KYCPersonal; i <= models.KYCReview; i++ {
		s.KYCSubStepStatus[i] = true
	}

	s.UserData.Name = "Demo Investor"
	s.UserData.Email = DemoEmail
	s.UserData.Mobile = DemoMobile
	s.UserData.Password = DemoPassword
	s.UserData.KYC = models.KYCDetails{
		Name:           "Demo Investor",
		FatherName:     "Demo Parent",
		DOB:            "1988-01-15",
		PAN:            "ABCDE1234F",
		Aadhaar:        "123412341234",
		Gender:         "other",
		MaritalStatus:  "single",
		Address:        "1 Residency Road",
		City:           "Bengaluru",
		Pincode:        "560025",
		State:          "Karnataka",
		Country:        stage.DefaultCountry,
		Mobile:         DemoMobile,
		Email:          DemoEmail,
		OccupationType: "salaried",
		Occupation:     "Salaried (Private Sector)",
	}

	for _, q := range risk.Questions {
		if q.Scored() {
			s.UserData.RiskAnswers[q.ID] = models.ChoiceAnswer(1)
		} else {
			s.UserData.RiskAnswers[q.ID] = models.SelectionAnswer(q.Options[0].Text)
		}
	}
	assessment := risk.Assess(s.UserData.RiskAnswers)
	s.UserData.RiskScore = assessment.Score
	s.UserData.RiskProfile = assessment.Profile

	for _, slot := range models.RequiredDocuments {
		s.UserData.DocsStatus[slot.ID] = true
		s.UserData.Documents[slot.ID] = models.Document{
			Name:        slot.ID + ".txt",
			ContentType: "text/plain",
			Size:        4,
			Location:    "data:text/plain;base64,ZGVtbw==",
		}
	}

	return s
}
