package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cradoe/onboard/internal/helper"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/smtp"
	"github.com/cradoe/onboard/internal/stream"
)

const (
	// notificationGroupID is used by the worker that emails users as they
	// finish onboarding.
	notificationGroupID = "onboarding-notification-group"

	pollTimeoutMs = 100
)

// Consumer is the part of a Kafka consumer the worker polls.
type Consumer interface {
	Poll(timeoutMs int) kafka.Event
	Close() error
}

type Worker struct {
	KafkaStream *stream.KafkaStream
	Mailer      smtp.MailerInterface
	Helper      *helper.HelperRepository
	Logger      *slog.Logger
}

func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		Mailer:      wk.Mailer,
		Helper:      wk.Helper,
		Logger:      wk.Logger,
	}
}

// Run subscribes to the step events topic and handles messages until ctx is
// cancelled.
func (wk *Worker) Run(ctx context.Context) error {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: notificationGroupID,
		Topic:   stream.StepEventsTopic,
	})
	if err != nil {
		return err
	}

	return wk.Consume(ctx, consumer)
}

func (wk *Worker) Consume(ctx context.Context, consumer Consumer) error {
	defer consumer.Close()

	wk.Logger.Info("notification worker started", "topic", stream.StepEventsTopic)

	for {
		select {
		case <-ctx.Done():
			wk.Logger.Info("notification worker stopped")
			return nil
		default:
		}

		switch e := consumer.Poll(pollTimeoutMs).(type) {
		case *kafka.Message:
			var event models.StepEvent
			if err := json.Unmarshal(e.Value, &event); err != nil {
				wk.Logger.Warn("discarding malformed step event", "partition", e.TopicPartition.String(), "error", err.Error())
				continue
			}

			if err := wk.Handle(ctx, event); err != nil {
				wk.Logger.Error("failed to handle step event", "type", string(event.Type), "device", event.Device, "error", err.Error())
			}

		case kafka.Error:
			wk.Logger.Warn("kafka error", "code", e.Code().String(), "error", e.Error())
		}
	}
}
