package stage

import (
	"context"
	"testing"

	"github.com/cradoe/onboard/internal/draft"
	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/otp"
	"github.com/cradoe/onboard/internal/progress"
)

type fixture struct {
	svc    *Service
	sess   *Session
	medium *progress.MemoryMedium
	store  *progress.Store
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	return newFixtureOn(t, progress.NewMemoryMedium(), "dev-1", opts, flow.Options{})
}

func newFixtureOn(t *testing.T, medium *progress.MemoryMedium, device string, opts Options, flowOpts flow.Options) *fixture {
	t.Helper()

	store := progress.New(medium, progress.Options{Device: device})
	sess := &Session{
		Flow:  flow.NewController(store, flowOpts),
		Draft: draft.NewRecovery(medium, device, nil, nil),
		OTP:   otp.New(otp.Options{Codes: otp.Codes{Email: "123456", Mobile: "654321"}}),
	}
	t.Cleanup(func() {
		sess.Flow.Close()
		sess.OTP.Stop()
	})

	return &fixture{svc: New(opts), sess: sess, medium: medium, store: store}
}

func ptr[T any](v T) *T {
	return &v
}

// startAt signs the fixture in with a record already sitting at step.
func (f *fixture) startAt(step models.Step, prepare ...func(*models.OnboardingState)) models.OnboardingState {
	s := models.FreshState()
	s.CurrentUser = "a@x.com"
	s.CurrentStep = step
	s.EmailVerified = true
	s.MobileVerified = true
	s.UserData.Name = "Asha"
	s.UserData.Email = "a@x.com"
	s.UserData.Mobile = "9876543210"
	s.UserData.Password = "password123"

	for _, fn := range prepare {
		fn(&s)
	}

	return f.sess.Flow.Start(context.Background(), s)
}

func allSubStepsDone(s *models.OnboardingState) {
	for i := models.KYCPersonal; i <= models.KYCReview; i++ {
		s.KYCSubStepStatus[i] = true
	}
}
