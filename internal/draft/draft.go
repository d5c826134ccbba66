// Package draft keeps a half-finished signup form alive across reloads. A
// draft belongs to a device rather than an identity, since no identity exists
// until signup commits.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cradoe/onboard/internal/metrics"
	"github.com/cradoe/onboard/internal/progress"
)

const (
	defaultTimeout = 3 * time.Second
	keyPrefix      = "onboard:draft:"
)

func Key(device string) string {
	return keyPrefix + device
}

type Form struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// OTP holds what the user has typed into the code inputs.
type OTP struct {
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

type Verified struct {
	Email  bool `json:"email"`
	Mobile bool `json:"mobile"`
}

type Draft struct {
	Form     Form     `json:"form"`
	OTP      OTP      `json:"otp"`
	Verified Verified `json:"verified"`
}

// Patch carries the fields that changed. Nil fields are left alone.
type Patch struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Mobile         *string `json:"mobile"`
	Password       *string `json:"password"`
	Confirm        *string `json:"confirm"`
	EmailOTP       *string `json:"emailOtp"`
	MobileOTP      *string `json:"mobileOtp"`
	EmailVerified  *bool   `json:"emailVerified"`
	MobileVerified *bool   `json:"mobileVerified"`
}

// Apply merges p over d. Verified flags are sticky: a patch can raise them
// but never lower them.
func (d Draft) Apply(p Patch) Draft {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&d.Form.Name, p.Name)
	set(&d.Form.Email, p.Email)
	set(&d.Form.Mobile, p.Mobile)
	set(&d.Form.Password, p.Password)
	set(&d.Form.Confirm, p.Confirm)
	set(&d.OTP.Email, p.EmailOTP)
	set(&d.OTP.Mobile, p.MobileOTP)

	if p.EmailVerified != nil && *p.EmailVerified {
		d.Verified.Email = true
	}
	if p.MobileVerified != nil && *p.MobileVerified {
		d.Verified.Mobile = true
	}

	return d
}

// fillBlanks copies restored values into d only where d is still empty, so
// anything typed before the restore landed wins.
func (d Draft) fillBlanks(restored Draft) Draft {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}

	fill(&d.Form.Name, restored.Form.Name)
	fill(&d.Form.Email, restored.Form.Email)
	fill(&d.Form.Mobile, restored.Form.Mobile)
	fill(&d.Form.Password, restored.Form.Password)
	fill(&d.Form.Confirm, restored.Form.Confirm)
	fill(&d.OTP.Email, restored.OTP.Email)
	fill(&d.OTP.Mobile, restored.OTP.Mobile)

	d.Verified.Email = d.Verified.Email || restored.Verified.Email
	d.Verified.Mobile = d.Verified.Mobile || restored.Verified.Mobile

	return d
}

// Recovery owns one device's signup draft. The in-memory copy is
// authoritative; the medium is written after every change so a reload can
// pick it back up.
type Recovery struct {
	mu       sync.Mutex
	medium   progress.Medium
	key      string
	current  Draft
	restored bool
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewRecovery(medium progress.Medium, device string, logger *slog.Logger, m *metrics.Metrics) *Recovery {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Recovery{
		medium:  medium,
		key:     Key(device),
		logger:  logger,
		metrics: m,
	}
}

// Current returns the draft as it stands, restoring it first if that has
// not happened yet.
func (r *Recovery) Current(ctx context.Context) Draft {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.restoreLocked(ctx)
	return r.current
}

// Save merges patch over the draft and writes it through.
func (r *Recovery) Save(ctx context.Context, patch Patch) Draft {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.restoreLocked(ctx)
	r.current = r.current.Apply(patch)
	r.writeLocked(ctx)

	return r.current
}

// Clear drops the draft from memory and the medium. Signup calls it once,
// at commit.
func (r *Recovery) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = Draft{}
	r.restored = true

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.medium.Delete(ctx, r.key); err != nil && !errors.Is(err, progress.ErrMissing) {
		r.degraded("clear_draft", err)
	}
}

// restoreLocked reads the stored draft the first time it runs. Fields that
// already hold a value are never overwritten.
func (r *Recovery) restoreLocked(ctx context.Context) {
	if r.restored {
		return
	}
	r.restored = true

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	payload, err := r.medium.Get(ctx, r.key)
	if errors.Is(err, progress.ErrMissing) {
		return
	}
	if err != nil {
		r.degraded("load_draft", err)
		return
	}

	var stored Draft
	if err := json.Unmarshal(payload, &stored); err != nil {
		r.degraded("decode_draft", err)
		return
	}

	r.current = r.current.fillBlanks(stored)
}

func (r *Recovery) writeLocked(ctx context.Context) {
	payload, err := json.Marshal(r.current)
	if err != nil {
		r.degraded("encode_draft", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.medium.Set(ctx, r.key, payload); err != nil {
		r.degraded("save_draft", err)
	}
}

func (r *Recovery) degraded(op string, err error) {
	r.metrics.ObserveStorageFailure(op)
	r.logger.Warn("signup draft degraded to in-memory", "op", op, "key", r.key, "error", err.Error())
}
