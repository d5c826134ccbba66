// Package stage holds one handler per onboarding stage. Handlers validate
// their input, commit through the device's flow controller and ask it to
// move on; none of them touch the progress store directly.
package stage

import (
	"context"
	"io"
	"log/slog"

	"github.com/cradoe/onboard/internal/draft"
	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/metrics"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/otp"
)

// Session is everything one device carries through the flow.
type Session struct {
	Flow  *flow.Controller
	Draft *draft.Recovery
	OTP   *otp.Verifier
}

// Uploader stores a document and returns where it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, content io.Reader) (string, error)
}

type Options struct {
	Passwords PasswordScheme
	Uploader  Uploader
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Service struct {
	passwords PasswordScheme
	uploader  Uploader
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(opts Options) *Service {
	if opts.Passwords == nil {
		opts.Passwords = PlaintextPasswords{}
	}
	if opts.Uploader == nil {
		opts.Uploader = DataURLUploader{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		passwords: opts.Passwords,
		uploader:  opts.Uploader,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// at fails unless the device is on step.
func at(sess *Session, step models.Step) (models.OnboardingState, error) {
	state := sess.Flow.State()
	if state.CurrentStep != step {
		return state, &flow.StageError{Expected: step, Current: state.CurrentStep}
	}
	return state, nil
}
