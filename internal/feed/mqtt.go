package feed

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

const (
	defaultMQTTTopic    = "toll/events"
	defaultMQTTClientID = "tollgated"
)

// MQTTConfig holds the MQTT sink settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"clientID"`
	QoS      byte   `yaml:"qos"`
}

// MQTT publishes events to an MQTT topic.
type MQTT struct {
	client mqtt.Client
	topic  string
	qos    byte
}

func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = defaultMQTTTopic
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = defaultMQTTClientID
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", token.Error())
	}
	return &MQTT{client: client, topic: topic, qos: cfg.QoS}, nil
}

func (m *MQTT) Publish(_ context.Context, ev toll.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	token := m.client.Publish(m.topic, m.qos, false, data)
	token.Wait()
	return token.Error()
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
