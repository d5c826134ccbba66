// Package otp verifies ownership of the signup email and mobile. Codes are
// fixed per channel; sending is simulated by a one-shot delay, and the email
// channel additionally mails the code when a mailer is configured.
package otp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cradoe/onboard/internal/smtp"
	"github.com/cradoe/onboard/internal/validator"
)

type Channel string

const (
	ChannelEmail  Channel = "email"
	ChannelMobile Channel = "mobile"
)

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelMobile
}

var (
	ErrUnknownChannel     = errors.New("unknown verification channel")
	ErrInvalidDestination = errors.New("destination is not valid for this channel")
	ErrInvalidCode        = errors.New("invalid OTP")
)

type Codes struct {
	Email  string
	Mobile string
}

func (c Codes) For(ch Channel) string {
	if ch == ChannelEmail {
		return c.Email
	}
	return c.Mobile
}

type Options struct {
	Codes     Codes
	SendDelay time.Duration
	Mailer    smtp.MailerInterface
	// Background runs delivery off the request path. Delivery runs inline
	// when it is nil.
	Background func(fn func() error)
	Logger     *slog.Logger
}

// Verifier tracks the send state of both channels for one device.
type Verifier struct {
	opts    Options
	mu      sync.Mutex
	sending map[Channel]*time.Timer
}

func New(opts Options) *Verifier {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Verifier{
		opts:    opts,
		sending: make(map[Channel]*time.Timer),
	}
}

// Send starts a simulated delivery to destination. The channel reports
// Sending until the delay elapses; the delay cannot be cancelled by a later
// send.
func (v *Verifier) Send(ctx context.Context, ch Channel, destination, name string) error {
	switch ch {
	case ChannelEmail:
		if !validator.IsEmail(destination) {
			return ErrInvalidDestination
		}
	case ChannelMobile:
		if !validator.IsPhone(destination) {
			return ErrInvalidDestination
		}
	default:
		return ErrUnknownChannel
	}

	v.mu.Lock()
	if _, busy := v.sending[ch]; !busy {
		v.sending[ch] = time.AfterFunc(v.opts.SendDelay, func() {
			v.mu.Lock()
			delete(v.sending, ch)
			v.mu.Unlock()
		})
	}
	v.mu.Unlock()

	if ch == ChannelEmail && v.opts.Mailer != nil {
		data := map[string]any{
			"Name":        name,
			"Code":        v.opts.Codes.Email,
			"RequestedAt": time.Now(),
		}

		deliver := func() error {
			return v.opts.Mailer.Send(context.WithoutCancel(ctx), destination, data, "otp.tmpl")
		}

		if v.opts.Background != nil {
			v.opts.Background(deliver)
		} else if err := deliver(); err != nil {
			return err
		}
	}

	v.opts.Logger.Info("otp sent", "channel", string(ch))
	return nil
}

func (v *Verifier) Sending(ch Channel) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, busy := v.sending[ch]
	return busy
}

// Verify checks code against the channel's expected code.
func (v *Verifier) Verify(ch Channel, code string) error {
	if !ch.Valid() {
		return ErrUnknownChannel
	}

	if code == "" || code != v.opts.Codes.For(ch) {
		return ErrInvalidCode
	}

	return nil
}

// Stop cancels pending send timers.
func (v *Verifier) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for ch, t := range v.sending {
		t.Stop()
		delete(v.sending, ch)
	}
}
