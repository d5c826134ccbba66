// Package device keeps one onboarding session per device. A device's
// session is built on first use and resumed from its session pointer.
package device

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cradoe/onboard/internal/draft"
	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/metrics"
	"github.com/cradoe/onboard/internal/otp"
	"github.com/cradoe/onboard/internal/progress"
	"github.com/cradoe/onboard/internal/stage"

	"golang.org/x/sync/singleflight"
)

type Options struct {
	Medium        progress.Medium
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Publisher     flow.Publisher
	NameSyncDelay time.Duration
	OTP           otp.Options
	// IdleTTL is how long a session may go unused before Sweep forgets it.
	// Zero keeps sessions until Forget or Close.
	IdleTTL time.Duration
}

type entry struct {
	sess     *stage.Session
	lastSeen time.Time
}

type Registry struct {
	opts     Options
	mu       sync.Mutex
	sessions map[string]*entry
	group    singleflight.Group
}

func New(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.OTP.Logger == nil {
		opts.OTP.Logger = opts.Logger
	}

	return &Registry{
		opts:     opts,
		sessions: make(map[string]*entry),
	}
}

// Session returns the session for device, creating and resuming it the
// first time the device is seen. Concurrent first requests share one
// resume.
func (r *Registry) Session(ctx context.Context, device string) *stage.Session {
	if sess, ok := r.touch(device); ok {
		return sess
	}

	v, _, _ := r.group.Do(device, func() (any, error) {
		if existing, ok := r.touch(device); ok {
			return existing, nil
		}

		sess := r.build(device)
		if sess.Flow.Resume(ctx) {
			r.opts.Logger.Info("device resumed", "device", device)
		}

		r.mu.Lock()
		r.sessions[device] = &entry{sess: sess, lastSeen: time.Now()}
		r.mu.Unlock()
		return sess, nil
	})

	return v.(*stage.Session)
}

func (r *Registry) touch(device string) (*stage.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[device]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.sess, true
}

func (r *Registry) build(device string) *stage.Session {
	store := progress.New(r.opts.Medium, progress.Options{
		Device:  device,
		Logger:  r.opts.Logger,
		Metrics: r.opts.Metrics,
	})

	return &stage.Session{
		Flow: flow.NewController(store, flow.Options{
			Logger:        r.opts.Logger,
			Metrics:       r.opts.Metrics,
			Publisher:     r.opts.Publisher,
			NameSyncDelay: r.opts.NameSyncDelay,
		}),
		Draft: draft.NewRecovery(r.opts.Medium, device, r.opts.Logger, r.opts.Metrics),
		OTP:   otp.New(r.opts.OTP),
	}
}

// Len reports how many devices have a live session.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Forget drops the in-memory session for device. Its stored progress is
// untouched and is resumed on the next request.
func (r *Registry) Forget(device string) {
	r.mu.Lock()
	e, ok := r.sessions[device]
	delete(r.sessions, device)
	r.mu.Unlock()

	if ok {
		stop(e.sess)
	}
}

// Sweep forgets every session idle since before now minus IdleTTL and
// reports how many went.
func (r *Registry) Sweep(now time.Time) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-r.opts.IdleTTL)

	r.mu.Lock()
	var idle []*stage.Session
	for device, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.sess)
			delete(r.sessions, device)
		}
	}
	r.mu.Unlock()

	for _, sess := range idle {
		stop(sess)
	}
	if len(idle) > 0 {
		r.opts.Logger.Info("idle devices forgotten", "count", len(idle))
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Close stops every session's pending timers.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		stop(e.sess)
	}
}

func stop(sess *stage.Session) {
	sess.Flow.Close()
	sess.OTP.Stop()
}
