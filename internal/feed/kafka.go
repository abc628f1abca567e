package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

const defaultKafkaTopic = "toll.events"

// KafkaConfig holds the Kafka sink settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Kafka publishes events to a Kafka topic. Messages are keyed by plate so
// one vehicle's transitions land on the same partition, in order.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(cfg KafkaConfig) *Kafka {
	topic := cfg.Topic
	if topic == "" {
		topic = defaultKafkaTopic
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (k *Kafka) Publish(ctx context.Context, ev toll.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Plate),
		Value: data,
	})
}

func (k *Kafka) Close() error { return k.writer.Close() }
