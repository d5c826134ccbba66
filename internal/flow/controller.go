// Package flow owns the onboarding state for one device. Every change goes
// through Controller.Persist or one of the navigation methods, which write
// the result to the progress store before returning.
package flow

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cradoe/onboard/internal/metrics"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/progress"
	"github.com/cradoe/onboard/internal/risk"
)

const DefaultNameSyncDelay = 200 * time.Millisecond

// Mutator computes the next state from the current one. It receives a deep
// copy and may modify it freely.
type Mutator func(models.OnboardingState) models.OnboardingState

type Publisher interface {
	Publish(ctx context.Context, event models.StepEvent) error
}

type Options struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Publisher     Publisher
	NameSyncDelay time.Duration
}

type Controller struct {
	mu    sync.Mutex
	state models.OnboardingState
	// epoch changes whenever the signed-in identity does, so delayed work
	// scheduled for one session never lands in another.
	epoch int

	store     *progress.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher

	gates    map[Document]*ReadGate
	nameSync *Debouncer
	// nameGen invalidates name syncs that were scheduled before a commit
	// of the personal details.
	nameGen int
}

func NewController(store *progress.Store, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	delay := opts.NameSyncDelay
	if delay <= 0 {
		delay = DefaultNameSyncDelay
	}

	return &Controller{
		state:     models.FreshState(),
		store:     store,
		logger:    logger.With("device", store.Device()),
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		gates: map[Document]*ReadGate{
			DocAssessment: {},
			DocAgreement:  {},
		},
		nameSync: NewDebouncer(delay),
	}
}

func (c *Controller) Device() string {
	return c.store.Device()
}

// State returns a copy of the in-memory state.
func (c *Controller) State() models.OnboardingState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Clone()
}

// Gate returns the read gate for a document.
func (c *Controller) Gate(doc Document) *ReadGate {
	return c.gates[doc]
}

// Exists reports whether identity has a stored record.
func (c *Controller) Exists(ctx context.Context, identity string) bool {
	return c.store.Exists(ctx, identity)
}

// Lookup loads the stored record for identity without touching the
// in-memory state.
func (c *Controller) Lookup(ctx context.Context, identity string) (models.OnboardingState, bool) {
	return c.store.Load(ctx, identity)
}

// Persist applies mutate to the current state and, when a session is active,
// saves the result under every identity key of the record. It cannot move
// the flow between stages or change the signed-in identity; completion
// markers set earlier are carried forward.
func (c *Controller) Persist(ctx context.Context, mutate Mutator) models.OnboardingState {
	c.mu.Lock()
	snapshot := c.persistLocked(ctx, mutate)
	c.mu.Unlock()

	return snapshot
}

// PersistAt is Persist guarded by the current stage: it fails with a
// StageError unless the flow is at step.
func (c *Controller) PersistAt(ctx context.Context, step models.Step, mutate Mutator) (models.OnboardingState, error) {
	c.mu.Lock()
	if c.state.CurrentStep != step {
		current := c.state.CurrentStep
		c.mu.Unlock()
		return models.OnboardingState{}, &StageError{Expected: step, Current: current}
	}

	snapshot := c.persistLocked(ctx, mutate)
	c.mu.Unlock()

	return snapshot, nil
}

func (c *Controller) persistLocked(ctx context.Context, mutate Mutator) models.OnboardingState {
	next := settle(c.state, mutate(c.state.Clone()))
	c.commitLocked(ctx, next)
	return c.state.Clone()
}

// Advance moves the flow to the stage to, if the current stage allows it.
func (c *Controller) Advance(ctx context.Context, to models.Step) error {
	c.mu.Lock()

	if err := CanAdvance(c.state, to); err != nil {
		c.mu.Unlock()
		return err
	}

	from := c.state.CurrentStep
	next := c.state.Clone()
	next.CurrentStep = to
	c.commitLocked(ctx, next)
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.transitioned(ctx, from, snapshot)
	return nil
}

// EnterSubStep shows KYC sub-step n.
func (c *Controller) EnterSubStep(ctx context.Context, n int) (models.OnboardingState, error) {
	c.mu.Lock()
	if err := CanEnterSubStep(c.state, n); err != nil {
		c.mu.Unlock()
		return models.OnboardingState{}, err
	}

	snapshot := c.persistLocked(ctx, func(s models.OnboardingState) models.OnboardingState {
		s.KYCSubStep = n
		return s
	})
	c.mu.Unlock()

	return snapshot, nil
}

// Start makes a newly created record current: it becomes the in-memory
// state, the session pointer moves to it and it is saved under every key.
func (c *Controller) Start(ctx context.Context, state models.OnboardingState) models.OnboardingState {
	return c.signIn(ctx, state, true)
}

// Restore makes a stored record current without rewriting it.
func (c *Controller) Restore(ctx context.Context, state models.OnboardingState) models.OnboardingState {
	return c.signIn(ctx, state, false)
}

func (c *Controller) signIn(ctx context.Context, state models.OnboardingState, save bool) models.OnboardingState {
	c.nameSync.Cancel()
	c.resetGates()

	c.mu.Lock()
	from := c.state.CurrentStep
	c.epoch++
	c.state = state.Clone()
	c.state.EnsureMaps()
	c.store.SetSession(ctx, c.state.CurrentUser)
	if save {
		c.commitLocked(ctx, c.state)
	}
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.logger.Info("session started", "identity", snapshot.CurrentUser, "step", string(snapshot.CurrentStep))
	c.transitioned(ctx, from, snapshot)
	return snapshot
}

// Logout clears the session pointer and resets the in-memory state. The
// stored record is kept so the identity can resume later.
func (c *Controller) Logout(ctx context.Context) models.OnboardingState {
	c.nameSync.Cancel()
	c.resetGates()

	c.mu.Lock()
	identity := c.state.CurrentUser
	c.epoch++
	c.store.ClearSession(ctx)
	c.state = models.FreshState()
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.logger.Info("session ended", "identity", identity)
	return snapshot
}

// Resume restores the record the session pointer names, exactly as it was
// last saved. It reports false when there is no session or no record.
func (c *Controller) Resume(ctx context.Context) bool {
	identity, ok := c.store.Session(ctx)
	if !ok {
		return false
	}

	state, ok := c.store.Load(ctx, identity)
	if !ok {
		c.logger.Warn("session points at a missing record", "identity", identity)
		return false
	}

	c.mu.Lock()
	c.epoch++
	state.CurrentUser = identity
	c.state = state
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.logger.Info("session resumed", "identity", identity, "step", string(snapshot.CurrentStep))
	return true
}

// SyncName propagates the display name while it is being typed. Only the
// last value of a burst is written, after the sync delay.
func (c *Controller) SyncName(ctx context.Context, name string) {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	epoch := c.epoch
	c.nameGen++
	gen := c.nameGen
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.nameSync.Trigger(func() {
		c.mu.Lock()
		if c.epoch != epoch || c.nameGen != gen {
			c.mu.Unlock()
			return
		}

		c.persistLocked(ctx, func(s models.OnboardingState) models.OnboardingState {
			s.UserData.Name = name
			return s
		})
		c.mu.Unlock()
	})
}

// CancelNameSync drops a pending name sync, including one whose timer has
// already fired but not yet written.
func (c *Controller) CancelNameSync() {
	c.mu.Lock()
	c.nameGen++
	c.mu.Unlock()

	c.nameSync.Cancel()
}

// Announce publishes an event that is not a stage change, such as a
// completed payment.
func (c *Controller) Announce(ctx context.Context, kind models.EventType) {
	c.publish(ctx, kind, "", c.State())
}

// Close stops pending timers.
func (c *Controller) Close() {
	c.nameSync.Cancel()
}

func (c *Controller) commitLocked(ctx context.Context, next models.OnboardingState) {
	c.state = next
	c.metrics.IncrementMutations()

	if next.CurrentUser != "" {
		c.store.SaveAll(ctx, next, next.IdentityKeys()...)
	}
}

func (c *Controller) resetGates() {
	for _, g := range c.gates {
		g.Reset()
	}
}

func (c *Controller) transitioned(ctx context.Context, from models.Step, s models.OnboardingState) {
	if from == s.CurrentStep {
		return
	}

	c.metrics.ObserveTransition(string(from), string(s.CurrentStep))
	c.logger.Info("step transition", "identity", s.CurrentUser, "from", string(from), "to", string(s.CurrentStep))
	c.publish(ctx, models.EventStepChanged, from, s)
}

func (c *Controller) publish(ctx context.Context, kind models.EventType, from models.Step, s models.OnboardingState) {
	if c.publisher == nil {
		return
	}

	event := models.StepEvent{
		Type:     kind,
		Device:   c.Device(),
		Identity: s.CurrentUser,
		From:     from,
		To:       s.CurrentStep,
		Name:     displayName(s),
		Email:    s.UserData.Email,
		Plan:     s.UserData.SelectedPlan,
		At:       time.Now().UTC(),
	}

	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish step event", "type", string(kind), "error", err.Error())
	}
}

// settle carries forward everything a mutator may not take back: the stage,
// the identity, verification and completion markers. Risk score and profile
// are always recomputed from the answers.
func settle(prev, next models.OnboardingState) models.OnboardingState {
	next.CurrentStep = prev.CurrentStep
	next.CurrentUser = prev.CurrentUser

	if next.KYCSubStepStatus == nil {
		next.KYCSubStepStatus = make(map[int]bool, len(prev.KYCSubStepStatus))
	}
	for i, done := range prev.KYCSubStepStatus {
		if done {
			next.KYCSubStepStatus[i] = true
		}
	}

	if next.KYCSubStep < models.KYCPersonal || next.KYCSubStep > models.KYCReview {
		next.KYCSubStep = prev.KYCSubStep
	}

	next.EmailVerified = next.EmailVerified || prev.EmailVerified
	next.MobileVerified = next.MobileVerified || prev.MobileVerified

	next.Flags.AssessmentAck = next.Flags.AssessmentAck || prev.Flags.AssessmentAck
	next.Flags.AgreementSigned = next.Flags.AgreementSigned || prev.Flags.AgreementSigned
	next.Flags.PaymentDone = next.Flags.PaymentDone || prev.Flags.PaymentDone

	assessment := risk.Assess(next.UserData.RiskAnswers)
	next.UserData.RiskScore = assessment.Score
	next.UserData.RiskProfile = assessment.Profile

	return next
}

// displayName prefers the name as per PAN over the signup name.
func displayName(s models.OnboardingState) string {
	if s.UserData.KYC.Name != "" {
		return s.UserData.KYC.Name
	}
	return s.UserData.Name
}
