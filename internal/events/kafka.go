package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaProducer is the subset of *kgo.Client the publisher needs.
type KafkaProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes events as JSON records keyed by booker reference, so
// one booker's events stay ordered within a partition.
type KafkaPublisher struct {
	producer KafkaProducer
	topic    string
}

// NewKafkaClient connects a franz-go client that produces to topic by default.
func NewKafkaClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

func NewKafkaPublisher(producer KafkaProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.BookerReference),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(event.Kind)},
			{Key: "event-id", Value: []byte(event.ID)},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", event.Kind, err)
	}
	return nil
}
