package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// ========================================
// Test Helpers
// ========================================

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func testEvent() model.Event {
	return model.Event{
		ID:             5,
		Timestamp:      time.Date(2025, 6, 15, 14, 30, 5, 0, time.Local),
		DetectedObject: "fox",
		ImagePath:      "images/2025-06-15_14-30-05.jpg",
	}
}

// recordingSink remembers every notification it receives.
type recordingSink struct {
	name  string
	err   error
	delay time.Duration
	mu    sync.Mutex
	got   []Notification
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(ctx context.Context, n Notification) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type panickingSink struct{}

func (panickingSink) Name() string { return "panics" }

func (panickingSink) Deliver(context.Context, Notification) error { panic("boom") }

// fakeEndpoints is an in-memory EndpointSource.
type fakeEndpoints struct {
	mu      sync.Mutex
	tokens  []string
	listErr error
}

func (f *fakeEndpoints) ListEndpoints(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.tokens...), nil
}

func (f *fakeEndpoints) RemoveEndpoints(_ context.Context, tokens ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	kept := f.tokens[:0]
	for _, t := range f.tokens {
		drop := false
		for _, d := range tokens {
			if t == d {
				drop = true
			}
		}
		if drop {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	f.tokens = kept
	return removed, nil
}

// fakeToken completes immediately with err.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

// fakeMQTTClient records publishes; other mqtt.Client methods are not used.
type fakeMQTTClient struct {
	mqtt.Client
	err       error
	mu        sync.Mutex
	published []publishedMessage
}

type publishedMessage struct {
	topic   string
	qos     byte
	payload string
}

func (c *fakeMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, publishedMessage{topic: topic, qos: qos, payload: payload.(string)})
	return newFakeToken(c.err)
}

var errSinkDown = errors.New("sink down")
