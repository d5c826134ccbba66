package stage

import (
	"context"
	"strings"
	"testing"

	"github.com/cradoe/onboard/internal/draft"
	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/otp"
	"github.com/cradoe/onboard/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupPatch() draft.Patch {
	return draft.Patch{
		Name:     ptr("Asha Rao"),
		Email:    ptr("a@x.com"),
		Mobile:   ptr("9876543210"),
		Password: ptr("password123"),
		Confirm:  ptr("password123"),
	}
}

func verifyBoth(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.VerifyOTP(ctx, f.sess, otp.ChannelEmail, "123456")
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(ctx, f.sess, otp.ChannelMobile, "654321")
	require.NoError(t, err)
}

func TestSignupCommitsUnderEmailAndMobile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.svc.EditSignup(ctx, f.sess, signupPatch())
	require.NoError(t, err)
	require.NoError(t, f.svc.SendOTP(ctx, f.sess, otp.ChannelEmail))
	require.NoError(t, f.svc.SendOTP(ctx, f.sess, otp.ChannelMobile))
	verifyBoth(t, f)

	var validationErr *flow.ValidationError
	require.ErrorAs(t, f.svc.SendOTP(ctx, f.sess, otp.ChannelEmail), &validationErr, "verified channels cannot resend")

	status := f.svc.SignupStatus(ctx, f.sess)
	assert.True(t, status.CanContinue)

	state, err := f.svc.Signup(ctx, f.sess, draft.Patch{})
	require.NoError(t, err)
	assert.Equal(t, models.StepKYC, state.CurrentStep)
	assert.Equal(t, "a@x.com", state.CurrentUser)

	assert.True(t, f.store.Exists(ctx, "a@x.com"))
	assert.True(t, f.store.Exists(ctx, "9876543210"))

	byEmail, ok := f.store.Load(ctx, "a@x.com")
	require.True(t, ok)
	byMobile, ok := f.store.Load(ctx, "9876543210")
	require.True(t, ok)
	assert.Equal(t, byEmail, byMobile)

	session, ok := f.store.Session(ctx)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", session)

	_, err = f.medium.Get(ctx, draft.Key("dev-1"))
	assert.Error(t, err, "draft is discarded on commit")
}

func TestSignupRequiresBothVerifications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.svc.EditSignup(ctx, f.sess, signupPatch())
	require.NoError(t, err)
	_, err = f.svc.VerifyOTP(ctx, f.sess, otp.ChannelEmail, "123456")
	require.NoError(t, err)

	_, err = f.svc.Signup(ctx, f.sess, draft.Patch{})

	var validationErr *flow.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "mobileOtp")
	assert.NotContains(t, validationErr.Fields, "emailOtp")
	assert.False(t, f.store.Exists(ctx, "a@x.com"))
}

func TestSignupValidatesFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	verifyBoth(t, f)
	_, err := f.svc.Signup(ctx, f.sess, draft.Patch{
		Name:     ptr(" "),
		Email:    ptr("not-an-email"),
		Mobile:   ptr("98765"),
		Password: ptr("short"),
		Confirm:  ptr("shorter"),
	})

	var validationErr *flow.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, map[string]string{
		"name":     "Name required",
		"email":    "Valid email required",
		"mobile":   "Valid 10-digit mobile required",
		"password": "Min 8 chars",
		"confirm":  "Passwords do not match",
	}, validationErr.Fields)
}

func TestSignupRejectsRegisteredIdentity(t *testing.T) {
	ctx := context.Background()
	medium := progress.NewMemoryMedium()

	first := newFixtureOn(t, medium, "dev-1", Options{}, flow.Options{})
	_, err := first.svc.EditSignup(ctx, first.sess, signupPatch())
	require.NoError(t, err)
	verifyBoth(t, first)
	_, err = first.svc.Signup(ctx, first.sess, draft.Patch{})
	require.NoError(t, err)

	second := newFixtureOn(t, medium, "dev-2", Options{}, flow.Options{})
	_, err = second.svc.EditSignup(ctx, second.sess, signupPatch())
	require.NoError(t, err)
	verifyBoth(t, second)

	_, err = second.svc.Signup(ctx, second.sess, draft.Patch{})

	var conflict *flow.IdentityConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Account exists. Please login.", conflict.Fields["email"])
	assert.Equal(t, "Phone exists. Please login.", conflict.Fields["mobile"])
	assert.Equal(t, models.StepAuth, second.sess.Flow.State().CurrentStep)
}

func TestVerifyOTP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.svc.VerifyOTP(ctx, f.sess, otp.ChannelEmail, "000000")
	var validationErr *flow.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Invalid OTP", validationErr.Fields["emailOtp"])
	assert.False(t, f.sess.Flow.State().EmailVerified)

	status, err := f.svc.VerifyOTP(ctx, f.sess, otp.ChannelMobile, "654321")
	require.NoError(t, err)
	assert.True(t, status.Verified.Mobile)
	assert.True(t, f.sess.Flow.State().MobileVerified)
	assert.Equal(t, "654321", status.Draft.OTP.Mobile)
}

func TestVerifyOTPRejectsMalformedCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	for _, code := range []string{"12ab56", "12345", "1234567", ""} {
		_, err := f.svc.VerifyOTP(ctx, f.sess, otp.ChannelEmail, code)
		var validationErr *flow.ValidationError
		require.ErrorAs(t, err, &validationErr, code)
		assert.Equal(t, "Enter the 6-digit OTP", validationErr.Fields["emailOtp"], code)
	}
	assert.False(t, f.sess.Flow.State().EmailVerified)
	assert.Equal(t, "", f.svc.SignupStatus(ctx, f.sess).Draft.OTP.Email, "the last typed code is kept in the draft")

	status, err := f.svc.VerifyOTP(ctx, f.sess, otp.ChannelEmail, " 123456 ")
	require.NoError(t, err)
	assert.True(t, status.Verified.Email)
}

func TestSignupCapsNameAndPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	long := strings.Repeat("p", 73)
	patch := signupPatch()
	patch.Name = ptr(strings.Repeat("n", 101))
	patch.Password = ptr(long)
	patch.Confirm = ptr(long)
	_, err := f.svc.EditSignup(ctx, f.sess, patch)
	require.NoError(t, err)
	verifyBoth(t, f)

	_, err = f.svc.Signup(ctx, f.sess, draft.Patch{})

	var validationErr *flow.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, map[string]string{
		"name":     "Max 100 chars",
		"password": "Max 72 chars",
	}, validationErr.Fields)
	assert.False(t, f.store.Exists(ctx, "a@x.com"))

	fits := strings.Repeat("p", 72)
	state, err := f.svc.Signup(ctx, f.sess, draft.Patch{
		Name:     ptr(strings.Repeat("n", 100)),
		Password: ptr(fits),
		Confirm:  ptr(fits),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StepKYC, state.CurrentStep)
}

func TestSendOTPNeedsValidDestination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.svc.EditSignup(ctx, f.sess, draft.Patch{Email: ptr("nope"), Mobile: ptr("98-76-54-32-10-99")})
	require.NoError(t, err)

	var validationErr *flow.ValidationError
	require.ErrorAs(t, f.svc.SendOTP(ctx, f.sess, otp.ChannelEmail), &validationErr)
	assert.Equal(t, "987654321099", f.svc.SignupStatus(ctx, f.sess).Draft.Form.Mobile, "separators are dropped, extra digits kept")
	require.ErrorAs(t, f.svc.SendOTP(ctx, f.sess, otp.ChannelMobile), &validationErr)
	assert.Equal(t, "Valid 10-digit mobile required", validationErr.Fields["mobile"])

	_, err = f.svc.EditSignup(ctx, f.sess, draft.Patch{Mobile: ptr("98-76-54-32-10")})
	require.NoError(t, err)
	require.NoError(t, f.svc.SendOTP(ctx, f.sess, otp.ChannelMobile))
}

func TestSignupRejectsOverlongMobile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	patch := signupPatch()
	patch.Mobile = ptr("98765432109")
	_, err := f.svc.EditSignup(ctx, f.sess, patch)
	require.NoError(t, err)
	verifyBoth(t, f)

	_, err = f.svc.Signup(ctx, f.sess, draft.Patch{})

	var validationErr *flow.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, map[string]string{"mobile": "Valid 10-digit mobile required"}, validationErr.Fields)
	assert.Equal(t, models.StepAuth, f.sess.Flow.State().CurrentStep)
	assert.False(t, f.store.Exists(ctx, "9876543210"))
	assert.False(t, f.store.Exists(ctx, "98765432109"))
}

func TestEditSignupCannotForgeVerification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	d, err := f.svc.EditSignup(ctx, f.sess, draft.Patch{EmailVerified: ptr(true), MobileVerified: ptr(true)})
	require.NoError(t, err)
	assert.False(t, d.Verified.Email)
	assert.False(t, d.Verified.Mobile)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	f.startAt(models.StepDocs)
	f.sess.Flow.Logout(ctx)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, f.sess, LoginInput{Identifier: "a@x.com", Password: "nope-nope"})

		var authErr *flow.AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "password", authErr.Field)
		assert.Equal(t, models.StepAuth, f.sess.Flow.State().CurrentStep)
	})

	t.Run("unknown identity", func(t *testing.T) {
		_, err := f.svc.Login(ctx, f.sess, LoginInput{Identifier: "b@x.com", Password: "password123"})

		var authErr *flow.AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "identifier", authErr.Field)
	})

	t.Run("malformed identifier", func(t *testing.T) {
		_, err := f.svc.Login(ctx, f.sess, LoginInput{Identifier: "b@", Password: ""})

		var validationErr *flow.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "identifier")
		assert.Contains(t, validationErr.Fields, "password")
	})

	t.Run("by mobile resumes the saved step", func(t *testing.T) {
		state, err := f.svc.Login(ctx, f.sess, LoginInput{Identifier: "9876543210", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, models.StepDocs, state.CurrentStep)
		assert.Equal(t, "a@x.com", state.CurrentUser)

		session, ok := f.store.Session(ctx)
		require.True(t, ok)
		assert.Equal(t, "a@x.com", session)
	})
}

func TestLogoutKeepsRecordResumable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	f.startAt(models.StepRisk)
	before, ok := f.store.Load(ctx, "a@x.com")
	require.True(t, ok)

	state := f.svc.Logout(ctx, f.sess)

	assert.Equal(t, models.FreshState(), state)
	_, ok = f.store.Session(ctx)
	assert.False(t, ok)

	after, ok := f.store.Load(ctx, "a@x.com")
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestHashedPasswords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Passwords: HashedPasswords{}})

	_, err := f.svc.EditSignup(ctx, f.sess, signupPatch())
	require.NoError(t, err)
	verifyBoth(t, f)

	state, err := f.svc.Signup(ctx, f.sess, draft.Patch{})
	require.NoError(t, err)
	assert.NotEqual(t, "password123", state.UserData.Password)

	f.svc.Logout(ctx, f.sess)

	_, err = f.svc.Login(ctx, f.sess, LoginInput{Identifier: "a@x.com", Password: "password123"})
	require.NoError(t, err)
}
