package notify

import (
	"context"
	"errors"
	"testing"

	"wildwatch/internal/model"
)

func TestMQTTSink_PublishesOnFixedTopic(t *testing.T) {
	client := &fakeMQTTClient{}
	sink := NewMQTTSink(client, "alert/detection", 1)

	if err := sink.Deliver(context.Background(), NewNotification(testEvent(), false)); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if len(client.published) != 1 {
		t.Fatalf("Expected one publish, got %d", len(client.published))
	}
	msg := client.published[0]
	if msg.topic != "alert/detection" {
		t.Errorf("Unexpected topic %s", msg.topic)
	}
	if msg.qos != 1 {
		t.Errorf("Expected QoS 1, got %d", msg.qos)
	}
	if msg.payload != "fox detected at 2025-06-15 14:30:05" {
		t.Errorf("Unexpected payload %q", msg.payload)
	}
}

func TestMQTTSink_PublishError(t *testing.T) {
	client := &fakeMQTTClient{err: errors.New("not connected")}
	sink := NewMQTTSink(client, "alert/detection", 1)

	err := sink.Deliver(context.Background(), NewNotification(testEvent(), false))
	if !errors.Is(err, model.ErrTransientIO) {
		t.Errorf("Expected transient fault, got %v", err)
	}
}
