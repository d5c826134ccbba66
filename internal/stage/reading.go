package stage

import (
	"context"
	"errors"

	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
)

// readings maps each disclosure to the stage that shows it and the stage
// that follows once it has been read and acknowledged.
var readings = map[flow.Document]struct {
	step models.Step
	next models.Step
	mark func(*models.Flags)
}{
	flow.DocAssessment: {
		step: models.StepAssessment,
		next: models.StepDocs,
		mark: func(f *models.Flags) { f.AssessmentAck = true },
	},
	flow.DocAgreement: {
		step: models.StepSign,
		next: models.StepPayment,
		mark: func(f *models.Flags) { f.AgreementSigned = true },
	},
}

func (svc *Service) gate(sess *Session, doc flow.Document) (*flow.ReadGate, error) {
	reading, ok := readings[doc]
	if !ok {
		return nil, &flow.ValidationError{Fields: map[string]string{"document": "Unknown document"}}
	}

	if _, err := at(sess, reading.step); err != nil {
		return nil, err
	}

	return sess.Flow.Gate(doc), nil
}

func (svc *Service) ReadingStatus(sess *Session, doc flow.Document) (flow.GateStatus, error) {
	g, err := svc.gate(sess, doc)
	if err != nil {
		return flow.GateStatus{}, err
	}
	return g.Status(), nil
}

// ObserveViewport feeds scroll or resize measurements into the document's
// gate.
func (svc *Service) ObserveViewport(sess *Session, doc flow.Document, v flow.Viewport) (flow.GateStatus, error) {
	g, err := svc.gate(sess, doc)
	if err != nil {
		return flow.GateStatus{}, err
	}
	if !v.Measured() {
		return g.Status(), &flow.ValidationError{Fields: map[string]string{"viewport": "Viewport must have positive heights and no negative offset"}}
	}
	return g.Observe(v), nil
}

// ReachedEnd is for clients that detect the end of the document themselves
// instead of reporting scroll geometry.
func (svc *Service) ReachedEnd(sess *Session, doc flow.Document) (flow.GateStatus, error) {
	g, err := svc.gate(sess, doc)
	if err != nil {
		return flow.GateStatus{}, err
	}
	return g.MarkReachedEnd(), nil
}

func (svc *Service) Acknowledge(sess *Session, doc flow.Document, checked bool) (flow.GateStatus, error) {
	g, err := svc.gate(sess, doc)
	if err != nil {
		return flow.GateStatus{}, err
	}

	status, err := g.Acknowledge(checked)
	if errors.Is(err, flow.ErrNotRead) {
		return status, &flow.ValidationError{Fields: map[string]string{"acknowledged": err.Error()}}
	}
	return status, err
}

// FinishReading records the document as acknowledged (or the agreement as
// signed) and moves to the next stage.
func (svc *Service) FinishReading(ctx context.Context, sess *Session, doc flow.Document) (models.OnboardingState, error) {
	g, err := svc.gate(sess, doc)
	if err != nil {
		return sess.Flow.State(), err
	}

	reading := readings[doc]
	if !g.Ready() {
		return sess.Flow.State(), &flow.TransitionError{
			From:   reading.step,
			To:     reading.next,
			Reason: "read the document to the end and acknowledge it",
		}
	}

	if _, err := sess.Flow.PersistAt(ctx, reading.step, func(s models.OnboardingState) models.OnboardingState {
		reading.mark(&s.Flags)
		return s
	}); err != nil {
		return sess.Flow.State(), err
	}

	if err := sess.Flow.Advance(ctx, reading.next); err != nil {
		return sess.Flow.State(), err
	}

	return sess.Flow.State(), nil
}
