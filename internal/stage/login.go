package stage

import (
	"context"
	"strings"

	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/validator"
)

type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login resumes an existing record by email or mobile. The saved stage is
// kept, so the user lands wherever they left off.
func (svc *Service) Login(ctx context.Context, sess *Session, input LoginInput) (models.OnboardingState, error) {
	current, err := at(sess, models.StepAuth)
	if err != nil {
		return current, err
	}

	id := strings.TrimSpace(input.Identifier)

	v := validator.Validator{}
	v.CheckField(validator.IsEmail(id) || validator.IsPhone(id), "identifier", "Enter valid email or 10-digit phone")
	v.CheckField(input.Password != "", "password", "Enter password")
	if err := flow.Validate(&v); err != nil {
		return current, err
	}

	if !sess.Flow.Exists(ctx, id) {
		svc.metrics.ObserveLogin("unknown_identity")
		return current, &flow.AuthenticationError{Field: "identifier", Message: "No account found. Please sign up."}
	}

	stored, ok := sess.Flow.Lookup(ctx, id)
	if !ok {
		svc.metrics.ObserveLogin("unknown_identity")
		return current, &flow.AuthenticationError{Field: "identifier", Message: "No account found. Please sign up."}
	}

	matches, err := svc.passwords.Matches(input.Password, stored.UserData.Password)
	if err != nil {
		return current, err
	}
	if !matches {
		svc.metrics.ObserveLogin("wrong_password")
		return current, &flow.AuthenticationError{Field: "password", Message: "Incorrect password"}
	}

	stored.CurrentUser = models.NormalizeIdentity(stored.UserData.Email)
	if stored.CurrentUser == "" {
		stored.CurrentUser = models.NormalizeIdentity(id)
	}
	if stored.CurrentStep == models.StepAuth {
		stored.CurrentStep = models.StepKYC
	}

	svc.metrics.ObserveLogin("success")
	return sess.Flow.Restore(ctx, stored), nil
}

// Logout ends the device's session. The stored record stays resumable.
func (svc *Service) Logout(ctx context.Context, sess *Session) models.OnboardingState {
	return sess.Flow.Logout(ctx)
}
