package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/config"
)

// Topic suffixes appended to the configured prefix.
const (
	TopicLogCreated    = "logs/created"
	TopicManualCreated = "manuals/created"
	TopicManualDeleted = "manuals/deleted"
)

// Publisher emits domain events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close()
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close()                                     {}

// mqttClient is the subset of mqtt.Client used by MQTTPublisher.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes JSON events to an MQTT broker.
type MQTTPublisher struct {
	client  mqttClient
	prefix  string
	timeout time.Duration
}

// NewPublisher returns an MQTT publisher when a broker is configured and a
// NopPublisher otherwise.
func NewPublisher(cfg config.EventsConfig, logger *log.Logger) (Publisher, error) {
	if cfg.BrokerURL == "" {
		logger.Info("No MQTT broker configured, events disabled")
		return NopPublisher{}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, errors.New("timed out connecting to MQTT broker")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	logger.WithFields(log.Fields{
		"broker": cfg.BrokerURL,
		"prefix": cfg.TopicPrefix,
	}).Info("Connected to MQTT broker")
	return &MQTTPublisher{client: client, prefix: cfg.TopicPrefix, timeout: 5 * time.Second}, nil
}

// Publish marshals payload to JSON and sends it at QoS 1 on prefix/topic.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	full := p.Topic(topic)
	token := p.client.Publish(full, 1, false, data)

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timed out", full)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	return nil
}

// Topic joins the configured prefix and a topic suffix.
func (p *MQTTPublisher) Topic(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "/" + strings.TrimLeft(suffix, "/")
}

// Close disconnects from the broker, allowing in-flight messages 250ms.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
