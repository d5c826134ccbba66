package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cradoe/onboard/internal/helper"
	"github.com/cradoe/onboard/internal/mocks"
	"github.com/cradoe/onboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestWorker(mailer *mocks.MockMailer) *Worker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(&Worker{
		Mailer: mailer,
		Helper: helper.New("http://localhost", nil, logger),
		Logger: logger,
	})
}

func planEvent(kind models.EventType, to models.Step) models.StepEvent {
	return models.StepEvent{
		Type:     kind,
		Device:   "dev-1",
		Identity: "a@x.com",
		From:     models.StepSign,
		To:       to,
		Name:     "Asha",
		Email:    "a@x.com",
		Plan:     &models.SelectedPlan{Key: "standard", Title: "Comprehensive Planning", Price: "₹34,999"},
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name     string
		event    models.StepEvent
		template string
	}{
		{name: "reaching payment", event: planEvent(models.EventStepChanged, models.StepPayment), template: "plan-summary.tmpl"},
		{name: "payment completed", event: planEvent(models.EventPaymentCompleted, models.StepPayment), template: "welcome.tmpl"},
		{name: "other transition", event: planEvent(models.EventStepChanged, models.StepSign)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(mocks.MockMailer)
			if tt.template != "" {
				mailer.On("Send", mock.Anything, "a@x.com", mock.MatchedBy(func(data map[string]any) bool {
					return data["Name"] == "Asha" && data["Plan"] == tt.event.Plan
				}), []string{tt.template}).Return(nil).Once()
			}

			require.NoError(t, newTestWorker(mailer).Handle(context.Background(), tt.event))
			mailer.AssertExpectations(t)
		})
	}
}

func TestHandleSkipsEventsWithoutPlan(t *testing.T) {
	mailer := new(mocks.MockMailer)

	event := planEvent(models.EventPaymentCompleted, models.StepPayment)
	event.Plan = nil

	require.NoError(t, newTestWorker(mailer).Handle(context.Background(), event))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleReturnsMailerError(t *testing.T) {
	mailer := new(mocks.MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := newTestWorker(mailer).Handle(context.Background(), planEvent(models.EventPaymentCompleted, models.StepPayment))
	assert.EqualError(t, err, "smtp down")
}

type fakeConsumer struct {
	mu     sync.Mutex
	events []kafka.Event
	closed bool
}

func (c *fakeConsumer) Poll(int) kafka.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.events) == 0 {
		return nil
	}
	e := c.events[0]
	c.events = c.events[1:]
	return e
}

func (c *fakeConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestConsume(t *testing.T) {
	payload, err := json.Marshal(planEvent(models.EventPaymentCompleted, models.StepPayment))
	require.NoError(t, err)

	consumer := &fakeConsumer{events: []kafka.Event{
		&kafka.Message{Value: []byte("not json")},
		kafka.NewError(kafka.ErrTransport, "broker down", false),
		&kafka.Message{Value: payload},
	}}

	sent := make(chan struct{})
	mailer := new(mocks.MockMailer)
	mailer.On("Send", mock.Anything, "a@x.com", mock.Anything, []string{"welcome.tmpl"}).
		Run(func(mock.Arguments) { close(sent) }).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestWorker(mailer).Consume(ctx, consumer) }()

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("welcome email was not sent")
	}

	cancel()
	require.NoError(t, <-done)
	assert.True(t, consumer.closed)
	mailer.AssertExpectations(t)
}
