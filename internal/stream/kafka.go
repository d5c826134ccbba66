package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cradoe/onboard/internal/models"
)

// StepEventsTopic carries every stage change and completed payment, keyed by
// device.
const StepEventsTopic = "onboarding.steps"

type KafkaStream struct {
	kafkaServers string
	producer     *kafka.Producer
	logger       *slog.Logger
}

func New(kafkaServers string, logger *slog.Logger) (*KafkaStream, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": kafkaServers,
		"acks":              "all",
	})
	if err != nil {
		return nil, err
	}

	return &KafkaStream{
		kafkaServers: kafkaServers,
		producer:     producer,
		logger:       logger,
	}, nil
}

// ProduceMessage writes one message and waits for the broker to acknowledge
// it, or for ctx to end.
func (st *KafkaStream) ProduceMessage(ctx context.Context, topic, key string, message []byte) error {
	delivery := make(chan kafka.Event, 1)

	err := st.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          message,
	}, delivery)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", e)
		}
		if m.TopicPartition.Error != nil {
			return m.TopicPartition.Error
		}
	}

	st.logger.Debug("message sent", "topic", topic, "key", key)
	return nil
}

// Publish sends a step event to StepEventsTopic.
func (st *KafkaStream) Publish(ctx context.Context, event models.StepEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return st.ProduceMessage(ctx, StepEventsTopic, event.Device, payload)
}

// Close flushes outstanding messages for up to five seconds.
func (st *KafkaStream) Close() {
	st.producer.Flush(5000)
	st.producer.Close()
}

type StreamConsumer struct {
	GroupId string
	Topic   string
}

func (st *KafkaStream) CreateConsumer(consumerStruct *StreamConsumer) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": st.kafkaServers,
		"group.id":          consumerStruct.GroupId,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(consumerStruct.Topic, nil); err != nil {
		consumer.Close()
		return nil, err
	}

	return consumer, nil
}
