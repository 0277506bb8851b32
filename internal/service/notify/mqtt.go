package notify

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
}

// NewMQTTClient builds an auto-reconnecting client. An empty client id gets a
// random one.
func NewMQTTClient(opts MQTTOptions, logger *logger.Logger) mqtt.Client {
	clientID := opts.ClientID
	if clientID == "" {
		clientID = "wildwatch-" + uuid.NewString()
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetMaxReconnectInterval(30 * time.Second)

	clientOpts.OnConnect = func(c mqtt.Client) {
		logger.Info("MQTT connected to %s as %s", opts.Broker, clientID)
	}
	clientOpts.OnConnectionLost = func(c mqtt.Client, err error) {
		logger.Warning("MQTT connection to %s lost, reconnecting: %v", opts.Broker, err)
	}

	return mqtt.NewClient(clientOpts)
}

// ConnectMQTT starts connecting and waits up to timeout. With connect-retry
// enabled the client keeps trying in the background after a timeout.
func ConnectMQTT(client mqtt.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: mqtt connection timeout", model.ErrTransientIO)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: mqtt connection failed: %v", model.ErrTransientIO, err)
	}
	return nil
}

// MQTTSink publishes one text message per event on a fixed topic.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTSink creates a sink publishing on topic through client.
func NewMQTTSink(client mqtt.Client, topic string, qos byte) *MQTTSink {
	return &MQTTSink{client: client, topic: topic, qos: qos}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Deliver publishes "<label> detected at <timestamp>".
func (s *MQTTSink) Deliver(ctx context.Context, n Notification) error {
	token := s.client.Publish(s.topic, s.qos, false, n.Body)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: publish to %s: %v", model.ErrTransientIO, s.topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: publish to %s failed: %v", model.ErrTransientIO, s.topic, err)
	}
	return nil
}

// Close disconnects, allowing in-flight messages 250ms to drain. It also
// stops any background connect retries.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
