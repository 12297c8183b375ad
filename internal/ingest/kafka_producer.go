package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/swiftride/internal/storage"
)

const EventRideRequested = "ride.requested"

// RideEvent is the message value published for each successful ride request.
type RideEvent struct {
	Type  string        `json:"type"`
	Entry storage.Entry `json:"entry"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{Addr: kafka.TCP(brokers...), Topic: topic, Balancer: &kafka.LeastBytes{}}
	return &KafkaPublisher{writer: w, timeout: 2 * time.Second}
}

// PublishRideRequested keys the message by ride id so a ride's events share a partition.
func (k *KafkaPublisher) PublishRideRequested(ctx context.Context, e storage.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	b, err := json.Marshal(RideEvent{Type: EventRideRequested, Entry: e})
	if err != nil {
		return err
	}
	key := e.ID
	if e.Response != nil && e.Response.RideID != "" {
		key = e.Response.RideID
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
