package progress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/cradoe/onboard/internal/metrics"
	"github.com/cradoe/onboard/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 3 * time.Second

const (
	snapshotPrefix = "onboard:progress:"
	sessionPrefix  = "onboard:session:"
)

// SnapshotKey is the medium key holding the snapshot for an identity.
func SnapshotKey(identity string) string {
	return snapshotPrefix + models.NormalizeIdentity(identity)
}

// SessionKey is the medium key holding a device's session pointer.
func SessionKey(device string) string {
	return sessionPrefix + device
}

type Options struct {
	// Device scopes the session pointer. Snapshots are shared by all devices.
	Device  string
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Store maps identity keys to onboarding snapshots and holds the session
// pointer for one device. Every medium failure degrades to "no data": saves
// become no-ops and reads report absence.
type Store struct {
	medium  Medium
	device  string
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(medium Medium, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	device := opts.Device
	if device == "" {
		device = "default"
	}

	return &Store{
		medium:  medium,
		device:  device,
		logger:  logger,
		metrics: opts.Metrics,
		tracer:  otel.Tracer("github.com/cradoe/onboard/internal/progress"),
	}
}

// Device returns the device the session pointer belongs to.
func (s *Store) Device() string {
	return s.device
}

// Save writes the snapshot for a single identity, overwriting what was there.
func (s *Store) Save(ctx context.Context, identity string, state models.OnboardingState) {
	s.SaveAll(ctx, state, identity)
}

// SaveAll encodes the snapshot once and writes the same bytes under every
// identity, so lookups by any of them return equal values.
func (s *Store) SaveAll(ctx context.Context, state models.OnboardingState, identities ...string) {
	ctx, span := s.tracer.Start(ctx, "progress.Save", trace.WithAttributes(attribute.Int("identities", len(identities))))
	defer span.End()

	payload, err := json.Marshal(state)
	if err != nil {
		s.fail(span, &StorageError{Op: "encode", Key: state.CurrentUser, Err: err})
		return
	}

	for _, identity := range identities {
		if models.NormalizeIdentity(identity) == "" {
			continue
		}

		key := SnapshotKey(identity)
		err := s.withTimeout(ctx, func(ctx context.Context) error {
			return s.medium.Set(ctx, key, payload)
		})
		if err != nil {
			s.fail(span, &StorageError{Op: "save", Key: key, Err: err})
		}
	}
}

// Load returns the last snapshot saved for identity. Missing, unreadable and
// corrupt snapshots are all reported as absent.
func (s *Store) Load(ctx context.Context, identity string) (models.OnboardingState, bool) {
	ctx, span := s.tracer.Start(ctx, "progress.Load")
	defer span.End()

	if models.NormalizeIdentity(identity) == "" {
		return models.OnboardingState{}, false
	}

	key := SnapshotKey(identity)

	var payload []byte
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		payload, err = s.medium.Get(ctx, key)
		return err
	})
	if errors.Is(err, ErrMissing) {
		return models.OnboardingState{}, false
	}
	if err != nil {
		s.fail(span, &StorageError{Op: "load", Key: key, Err: err})
		return models.OnboardingState{}, false
	}

	var state models.OnboardingState
	if err := json.Unmarshal(payload, &state); err != nil {
		s.fail(span, &StorageError{Op: "decode", Key: key, Err: err})
		return models.OnboardingState{}, false
	}

	if !state.CurrentStep.Valid() {
		s.fail(span, &StorageError{Op: "decode", Key: key, Err: errors.New("unknown step " + string(state.CurrentStep))})
		return models.OnboardingState{}, false
	}

	state.EnsureMaps()
	return state, true
}

// Exists reports whether a snapshot is stored for identity. An unreachable
// medium reports false.
func (s *Store) Exists(ctx context.Context, identity string) bool {
	ctx, span := s.tracer.Start(ctx, "progress.Exists")
	defer span.End()

	if models.NormalizeIdentity(identity) == "" {
		return false
	}

	key := SnapshotKey(identity)

	var found bool
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		found, err = s.medium.Exists(ctx, key)
		return err
	})
	if err != nil {
		s.fail(span, &StorageError{Op: "exists", Key: key, Err: err})
		return false
	}

	return found
}

// SetSession points this device at identity.
func (s *Store) SetSession(ctx context.Context, identity string) {
	ctx, span := s.tracer.Start(ctx, "progress.SetSession")
	defer span.End()

	key := SessionKey(s.device)
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.medium.Set(ctx, key, []byte(models.NormalizeIdentity(identity)))
	})
	if err != nil {
		s.fail(span, &StorageError{Op: "set_session", Key: key, Err: err})
	}
}

// Session returns the identity this device is signed in as, if any.
func (s *Store) Session(ctx context.Context) (string, bool) {
	ctx, span := s.tracer.Start(ctx, "progress.Session")
	defer span.End()

	key := SessionKey(s.device)

	var value []byte
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		value, err = s.medium.Get(ctx, key)
		return err
	})
	if errors.Is(err, ErrMissing) {
		return "", false
	}
	if err != nil {
		s.fail(span, &StorageError{Op: "get_session", Key: key, Err: err})
		return "", false
	}

	identity := models.NormalizeIdentity(string(value))
	return identity, identity != ""
}

// ClearSession removes the session pointer. Snapshots are left untouched.
func (s *Store) ClearSession(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "progress.ClearSession")
	defer span.End()

	key := SessionKey(s.device)
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.medium.Delete(ctx, key)
	})
	if err != nil && !errors.Is(err, ErrMissing) {
		s.fail(span, &StorageError{Op: "clear_session", Key: key, Err: err})
	}
}

func (s *Store) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return fn(ctx)
}

func (s *Store) fail(span trace.Span, err *StorageError) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Op)

	s.metrics.ObserveStorageFailure(err.Op)
	s.logger.Warn("progress store degraded to in-memory", "op", err.Op, "key", err.Key, "device", s.device, "error", err.Err.Error())
}
