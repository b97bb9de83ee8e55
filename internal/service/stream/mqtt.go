package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"StrideSense/internal/domain/models"
	drepo "StrideSense/internal/domain/repository"
	applogger "StrideSense/pkg/logger"
)

// MQTTClient reads IMU frames from a broker topic. Some device bridges
// publish over MQTT instead of holding a WebSocket open; the payload is the
// same JSON frame.
type MQTTClient struct {
	broker   string
	clientID string
	topic    string
	logger   *applogger.Logger

	client    mqtt.Client
	samples   chan *models.Sample
	errs      chan error
	connected bool
}

// NewMQTTClient creates an MQTT sample stream.
func NewMQTTClient(broker, clientID, topic string, logger *applogger.Logger) drepo.SampleStream {
	return &MQTTClient{
		broker:   broker,
		clientID: clientID,
		topic:    topic,
		logger:   logger,
		samples:  make(chan *models.Sample, 1024),
		errs:     make(chan error, 1),
	}
}

// Connect dials the broker and subscribes to the sample topic.
func (c *MQTTClient) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.broker).
		SetClientID(c.clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", c.broker, token.Error())
	}

	token := c.client.Subscribe(c.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f wsFrame
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			c.logger.Warn("mqtt sample unmarshal", applogger.Error(err))
			return
		}
		s := &models.Sample{TimeMS: f.T, AccelG: f.A, GyroDPS: f.G}
		select {
		case c.samples <- s:
		default:
			// drop on backpressure
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", c.topic, token.Error())
	}

	c.connected = true
	c.logger.Info("mqtt stream connected",
		applogger.String("broker", c.broker),
		applogger.String("topic", c.topic))
	return nil
}

// Read returns the sample and error channels. The paho client pushes into
// them from its own callback goroutine.
func (c *MQTTClient) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	return c.samples, c.errs
}

// Reconnect is handled by paho's auto-reconnect; this re-subscribes only.
func (c *MQTTClient) Reconnect(ctx context.Context) error {
	if c.client != nil && c.client.IsConnected() {
		return nil
	}
	return c.Connect(ctx)
}

// Close disconnects from the broker.
func (c *MQTTClient) Close() error {
	c.connected = false
	if c.client != nil {
		c.client.Unsubscribe(c.topic)
		c.client.Disconnect(250)
	}
	return nil
}

// IsConnected indicates status.
func (c *MQTTClient) IsConnected() bool {
	return c.connected && c.client != nil && c.client.IsConnected()
}
