package stage

import (
	"context"
	"errors"
	"strings"

	"github.com/cradoe/onboard/internal/draft"
	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/otp"
	"github.com/cradoe/onboard/internal/validator"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt input limit
	maxNameLength     = 100
)

// SignupStatus is what the signup form needs to render.
type SignupStatus struct {
	Draft       draft.Draft          `json:"draft"`
	Sending     map[otp.Channel]bool `json:"sending"`
	Verified    draft.Verified       `json:"verified"`
	CanContinue bool                 `json:"canContinue"`
}

func (svc *Service) SignupStatus(ctx context.Context, sess *Session) SignupStatus {
	d := sess.Draft.Current(ctx)
	verified := verifiedChannels(sess.Flow.State(), d)

	return SignupStatus{
		Draft: d,
		Sending: map[otp.Channel]bool{
			otp.ChannelEmail:  sess.OTP.Sending(otp.ChannelEmail),
			otp.ChannelMobile: sess.OTP.Sending(otp.ChannelMobile),
		},
		Verified:    verified,
		CanContinue: verified.Email && verified.Mobile,
	}
}

// EditSignup records keystrokes into the signup draft. The mobile field only
// keeps digits; its length is checked on commit.
func (svc *Service) EditSignup(ctx context.Context, sess *Session, patch draft.Patch) (draft.Draft, error) {
	if _, err := at(sess, models.StepAuth); err != nil {
		return draft.Draft{}, err
	}

	// verification flags are only raised by VerifyOTP
	patch.EmailVerified = nil
	patch.MobileVerified = nil

	if patch.Mobile != nil {
		mobile := validator.DigitsOnly(*patch.Mobile)
		patch.Mobile = &mobile
	}

	return sess.Draft.Save(ctx, patch), nil
}

// SendOTP starts a simulated code delivery to the address typed in the
// draft.
func (svc *Service) SendOTP(ctx context.Context, sess *Session, ch otp.Channel) error {
	if _, err := at(sess, models.StepAuth); err != nil {
		return err
	}

	d := sess.Draft.Current(ctx)
	verified := verifiedChannels(sess.Flow.State(), d)

	field, destination, done := string(ch), "", false
	switch ch {
	case otp.ChannelEmail:
		destination, done = strings.TrimSpace(d.Form.Email), verified.Email
	case otp.ChannelMobile:
		destination, done = d.Form.Mobile, verified.Mobile
	default:
		return &flow.ValidationError{Fields: map[string]string{"channel": "Unknown verification channel"}}
	}

	if done {
		return &flow.ValidationError{Fields: map[string]string{field: "Already verified"}}
	}

	err := sess.OTP.Send(ctx, ch, destination, d.Form.Name)
	switch {
	case errors.Is(err, otp.ErrInvalidDestination) && ch == otp.ChannelEmail:
		return &flow.ValidationError{Fields: map[string]string{field: "Valid email required"}}
	case errors.Is(err, otp.ErrInvalidDestination):
		return &flow.ValidationError{Fields: map[string]string{field: "Valid 10-digit mobile required"}}
	}

	return err
}

// VerifyOTP checks a code. On success the channel is marked verified both in
// the flow state and, stickily, in the draft.
func (svc *Service) VerifyOTP(ctx context.Context, sess *Session, ch otp.Channel, code string) (SignupStatus, error) {
	if _, err := at(sess, models.StepAuth); err != nil {
		return SignupStatus{}, err
	}

	code = strings.TrimSpace(code)
	yes := true

	patch := draft.Patch{}
	switch ch {
	case otp.ChannelEmail:
		patch.EmailOTP = &code
	case otp.ChannelMobile:
		patch.MobileOTP = &code
	default:
		return SignupStatus{}, &flow.ValidationError{Fields: map[string]string{"channel": "Unknown verification channel"}}
	}
	sess.Draft.Save(ctx, patch)

	if !validator.IsOTP(code) {
		return SignupStatus{}, &flow.ValidationError{Fields: map[string]string{string(ch) + "Otp": "Enter the 6-digit OTP"}}
	}

	if err := sess.OTP.Verify(ch, code); err != nil {
		return SignupStatus{}, &flow.ValidationError{Fields: map[string]string{string(ch) + "Otp": "Invalid OTP"}}
	}

	patch = draft.Patch{}
	if ch == otp.ChannelEmail {
		patch.EmailVerified = &yes
	} else {
		patch.MobileVerified = &yes
	}
	sess.Draft.Save(ctx, patch)

	sess.Flow.Persist(ctx, func(s models.OnboardingState) models.OnboardingState {
		if ch == otp.ChannelEmail {
			s.EmailVerified = true
		} else {
			s.MobileVerified = true
		}
		return s
	})

	return svc.SignupStatus(ctx, sess), nil
}

// Signup commits the draft, merged with any final edits in patch, into a new
// onboarding record, saved under both the email and the mobile.
func (svc *Service) Signup(ctx context.Context, sess *Session, patch draft.Patch) (models.OnboardingState, error) {
	current, err := at(sess, models.StepAuth)
	if err != nil {
		return current, err
	}

	d, err := svc.EditSignup(ctx, sess, patch)
	if err != nil {
		return current, err
	}

	form := d.Form
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)

	verified := verifiedChannels(current, d)

	v := validator.Validator{}
	v.CheckField(validator.NotBlank(form.Name), "name", "Name required")
	v.CheckField(validator.MaxRunes(form.Name, maxNameLength), "name", "Max 100 chars")
	v.CheckField(validator.IsEmail(form.Email), "email", "Valid email required")
	v.CheckField(validator.IsPhone(form.Mobile), "mobile", "Valid 10-digit mobile required")
	v.CheckField(validator.MinRunes(form.Password, minPasswordLength), "password", "Min 8 chars")
	v.CheckField(len(form.Password) <= maxPasswordBytes, "password", "Max 72 chars")
	v.CheckField(form.Password == form.Confirm, "confirm", "Passwords do not match")
	v.CheckField(verified.Email, "emailOtp", "Verify your email to continue")
	v.CheckField(verified.Mobile, "mobileOtp", "Verify your mobile to continue")
	if err := flow.Validate(&v); err != nil {
		return current, err
	}

	conflicts := map[string]string{}
	if sess.Flow.Exists(ctx, form.Email) {
		conflicts["email"] = "Account exists. Please login."
	}
	if sess.Flow.Exists(ctx, form.Mobile) {
		conflicts["mobile"] = "Phone exists. Please login."
	}
	if len(conflicts) > 0 {
		return current, &flow.IdentityConflictError{Fields: conflicts}
	}

	sealed, err := svc.passwords.Seal(form.Password)
	if err != nil {
		return current, err
	}

	record := models.FreshState()
	record.CurrentUser = models.NormalizeIdentity(form.Email)
	record.CurrentStep = models.StepKYC
	record.EmailVerified = true
	record.MobileVerified = true
	record.UserData.Name = form.Name
	record.UserData.Email = form.Email
	record.UserData.Mobile = form.Mobile
	record.UserData.Password = sealed

	state := sess.Flow.Start(ctx, record)
	sess.Draft.Clear(ctx)
	svc.metrics.IncrementSignups()

	return state, nil
}

func verifiedChannels(s models.OnboardingState, d draft.Draft) draft.Verified {
	return draft.Verified{
		Email:  s.EmailVerified || d.Verified.Email,
		Mobile: s.MobileVerified || d.Verified.Mobile,
	}
}
