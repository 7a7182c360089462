package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/equipment-diagnostics/internal/config"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool                     { return t.complete }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.complete {
		close(ch)
	}
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	token        *fakeToken
	sent         []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestNewPublisher_NoBroker(t *testing.T) {
	pub, err := NewPublisher(config.EventsConfig{}, log.New())
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), TopicLogCreated, map[string]string{"a": "b"}))
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{token: &fakeToken{complete: true}}
	pub := &MQTTPublisher{client: client, prefix: "diagnostics", timeout: time.Second}

	err := pub.Publish(context.Background(), TopicManualDeleted, map[string]string{"id": "abc"})
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	assert.Equal(t, "diagnostics/manuals/deleted", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var body map[string]string
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &body))
	assert.Equal(t, "abc", body["id"])
}

func TestMQTTPublisher_Errors(t *testing.T) {
	client := &fakeClient{token: &fakeToken{complete: true, err: errors.New("not connected")}}
	pub := &MQTTPublisher{client: client, prefix: "diagnostics", timeout: time.Second}
	assert.ErrorContains(t, pub.Publish(context.Background(), TopicLogCreated, 1), "not connected")

	client.token = &fakeToken{complete: false}
	assert.ErrorContains(t, pub.Publish(context.Background(), TopicLogCreated, 1), "timed out")

	assert.Error(t, pub.Publish(context.Background(), TopicLogCreated, make(chan int)))
}

func TestMQTTPublisher_TopicAndClose(t *testing.T) {
	client := &fakeClient{token: &fakeToken{complete: true}}
	assert.Equal(t, "logs/created", (&MQTTPublisher{client: client}).Topic(TopicLogCreated))
	assert.Equal(t, "p/logs/created", (&MQTTPublisher{client: client, prefix: "p"}).Topic("/logs/created"))

	pub := &MQTTPublisher{client: client}
	pub.Close()
	assert.True(t, client.disconnected)
}
