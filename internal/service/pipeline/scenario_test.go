package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wildwatch/internal/repository/sqlite"
	"wildwatch/internal/service/alert"
	"wildwatch/internal/service/notify"
	"wildwatch/internal/service/storage"
)

type doneToken struct {
	done chan struct{}
}

func newDoneToken() *doneToken {
	t := &doneToken{done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return nil }

type publishRecorder struct {
	mqtt.Client
	mu       sync.Mutex
	payloads []string
}

func (c *publishRecorder) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload.(string))
	return newDoneToken()
}

func (c *publishRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

type countingPlayer struct {
	plays atomic.Int32
}

func (p *countingPlayer) Play(string) error {
	p.plays.Add(1)
	return nil
}

// stack is the production wiring with only the camera, classifier, broker
// and push service faked.
type stack struct {
	store     *sqlite.Store
	imagesDir string
	pushCalls *atomic.Int32
	broker    *publishRecorder
	player    *countingPlayer
	pipeline  *Pipeline
}

func newStack(t *testing.T, steps []step, label string) *stack {
	t.Helper()
	dir := t.TempDir()
	log := newTestLogger(t)

	store, err := sqlite.Open(filepath.Join(dir, "events.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	var pushCalls atomic.Int32
	push := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushCalls.Add(1)
		w.Write([]byte(`{"success":1,"failure":0,"results":[{"message_id":"1"}]}`))
	}))
	t.Cleanup(push.Close)

	broker := &publishRecorder{}
	player := &countingPlayer{}

	fanout := notify.NewFanout(time.Second, log,
		notify.NewPushSink(notify.PushOptions{URL: push.URL, ServerKey: "k"}, store, log),
		notify.NewMQTTSink(broker, "alert/detection", 1),
	)

	imagesDir := filepath.Join(dir, "images")
	camera := &scriptedCamera{steps: steps}
	p := New(Components{
		Source:     camera,
		Detector:   camera,
		Classifier: &fakeClassifier{labels: []string{label}},
		Snapshots:  storage.NewSnapshotStore(imagesDir),
		Events:     store,
		Alerter:    alert.NewSounder(store, player, "alert.wav", log),
		Dispatcher: fanout,
	}, Options{ClassifierTimeout: time.Second, DrainTimeout: 2 * time.Second}, log)

	return &stack{store: store, imagesDir: imagesDir, pushCalls: &pushCalls, broker: broker, player: player, pipeline: p}
}

func TestScenarioA_FoxOnWatchlist(t *testing.T) {
	s := newStack(t, script(motion(3), still(1)), "fox")
	ctx := context.Background()

	if err := s.store.RegisterEndpoint(ctx, "device-token-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.store.AddWatchlistEntry(ctx, "fox"); err != nil {
		t.Fatal(err)
	}

	if err := s.pipeline.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	events, err := s.store.ListRecentEvents(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].DetectedObject != "fox" {
		t.Fatalf("Expected one fox event, got %+v", events)
	}
	if got := s.pushCalls.Load(); got != 1 {
		t.Errorf("Expected one push batch, got %d", got)
	}
	if s.broker.count() != 1 {
		t.Errorf("Expected one pub/sub message, got %d", s.broker.count())
	}
	want := "fox detected at " + events[0].FormattedTimestamp()
	if s.broker.payloads[0] != want {
		t.Errorf("Expected payload %q, got %q", want, s.broker.payloads[0])
	}
	if s.player.plays.Load() != 1 {
		t.Errorf("Expected one alert, got %d", s.player.plays.Load())
	}
}

func TestScenarioC_NoEndpoints(t *testing.T) {
	s := newStack(t, script(motion(2), still(1)), "deer")
	ctx := context.Background()

	if err := s.pipeline.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	events, err := s.store.ListRecentEvents(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected the event to be persisted, got %d", len(events))
	}
	if got := s.pushCalls.Load(); got != 0 {
		t.Errorf("Push sink should no-op without endpoints, got %d calls", got)
	}
	if s.broker.count() != 1 {
		t.Errorf("Expected pub/sub to fire, got %d", s.broker.count())
	}
	if s.player.plays.Load() != 0 {
		t.Errorf("deer is not watchlisted, expected no alert")
	}
}

func TestFanoutIsolation_PushDown(t *testing.T) {
	s := newStack(t, script(motion(1), still(1)), "fox")
	ctx := context.Background()
	if err := s.store.RegisterEndpoint(ctx, "device-token-1"); err != nil {
		t.Fatal(err)
	}

	// Replace the push sink target with a dead server.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer dead.Close()
	log := newTestLogger(t)
	s.pipeline.c.Dispatcher = notify.NewFanout(time.Second, log,
		notify.NewPushSink(notify.PushOptions{URL: dead.URL, ServerKey: "k"}, s.store, log),
		notify.NewMQTTSink(s.broker, "alert/detection", 1),
	)

	if err := s.pipeline.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if s.broker.count() != 1 {
		t.Errorf("Pub/sub must still fire when push fails, got %d", s.broker.count())
	}
	events, _ := s.store.ListRecentEvents(ctx, 50)
	if len(events) != 1 {
		t.Errorf("Event must be persisted regardless of sink failure, got %d", len(events))
	}
}

func TestStoreDown_LeavesNoOrphanedSnapshot(t *testing.T) {
	s := newStack(t, script(motion(1), still(1)), "fox")
	s.store.Close()

	if err := s.pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := s.pipeline.Stats().StorageFailures; got != 1 {
		t.Errorf("Expected 1 storage failure, got %d", got)
	}
	entries, err := os.ReadDir(s.imagesDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no snapshot without an event, found %d files", len(entries))
	}
	if s.broker.count() != 0 {
		t.Errorf("Unrecorded events must not be published, got %d", s.broker.count())
	}
}
