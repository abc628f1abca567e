// Package feed publishes toll transition events to downstream consumers.
package feed

import (
	"context"
	"fmt"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

// A Publisher delivers transition events to a downstream sink.
//
// Publishers observe transitions, they never participate in them: a publish
// failure must not affect the ledger or the client response.
type Publisher interface {
	Publish(ctx context.Context, ev toll.Event) error
	Close() error
}

// SinkType identifies the feed backend.
type SinkType string

const (
	SinkTypeNone  SinkType = "none"
	SinkTypeKafka SinkType = "kafka"
	SinkTypeMQTT  SinkType = "mqtt"
)

// Config selects and configures the feed backend.
type Config struct {
	Type  SinkType    `yaml:"type"`
	Kafka KafkaConfig `yaml:"kafka"`
	MQTT  MQTTConfig  `yaml:"mqtt"`
}

// New creates the configured publisher. An empty type means Nop.
func New(cfg Config) (Publisher, error) {
	switch cfg.Type {
	case SinkTypeNone, "":
		return Nop{}, nil
	case SinkTypeKafka:
		return NewKafka(cfg.Kafka), nil
	case SinkTypeMQTT:
		return NewMQTT(cfg.MQTT)
	default:
		return nil, fmt.Errorf("unknown feed sink type: %s", cfg.Type)
	}
}

// Nop discards events. It is the default sink.
type Nop struct{}

func (Nop) Publish(context.Context, toll.Event) error { return nil }

func (Nop) Close() error { return nil }
