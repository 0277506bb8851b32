package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"testing"
	"time"

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

var baseTime = time.Date(2025, 6, 15, 14, 30, 0, 0, time.Local)

// step is one scripted frame: either a read error or a frame with or without motion.
type step struct {
	motion bool
	err    error
}

func motion(n int) []step {
	s := make([]step, n)
	for i := range s {
		s[i].motion = true
	}
	return s
}

func still(n int) []step {
	return make([]step, n)
}

func script(parts ...[]step) []step {
	var all []step
	for _, p := range parts {
		all = append(all, p...)
	}
	return all
}

// scriptedCamera plays a script and then reports end of stream. It is both the
// frame source and the motion detector so the two stay in lockstep.
type scriptedCamera struct {
	steps    []step
	pos      int
	current  step
	observed int
}

func (c *scriptedCamera) Next(ctx context.Context) (model.Frame, error) {
	if c.pos >= len(c.steps) {
		return model.Frame{}, io.EOF
	}
	c.current = c.steps[c.pos]
	c.pos++
	if c.current.err != nil {
		return model.Frame{}, c.current.err
	}
	return model.Frame{
		Data:       []byte{0xFF, 0xD8, byte(c.pos), 0xFF, 0xD9},
		CapturedAt: baseTime.Add(time.Duration(c.pos) * time.Second),
	}, nil
}

func (c *scriptedCamera) Observe(frame model.Frame) model.MotionSignal {
	c.observed++
	if !c.current.motion {
		return model.MotionSignal{}
	}
	r := image.Rect(10, 10, 50, 50)
	return model.MotionSignal{Present: true, Region: &r}
}

type fakeClassifier struct {
	mu     sync.Mutex
	labels []string
	err    error
	delay  time.Duration
	calls  int
}

func (c *fakeClassifier) Classify(ctx context.Context, frame model.Frame, region *image.Rectangle) (model.Classification, error) {
	c.mu.Lock()
	call := c.calls
	c.calls++
	c.mu.Unlock()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return model.Classification{}, c.err
	}
	label := c.labels[call%len(c.labels)]
	return model.Classification{Label: label, Confidence: 0.9}, nil
}

func (c *fakeClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeSnapshots struct {
	saved     []model.Frame
	discarded []string
	err       error
}

func (s *fakeSnapshots) Discard(path string) error {
	s.discarded = append(s.discarded, path)
	return nil
}

func (s *fakeSnapshots) Save(frame model.Frame) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, frame)
	return fmt.Sprintf("images/%s.jpg", frame.CapturedAt.Format("2006-01-02_15-04-05")), nil
}

type fakeEvents struct {
	events []model.Event
	err    error
}

func (e *fakeEvents) InsertEvent(ctx context.Context, ts time.Time, label, imagePath string) (int64, error) {
	if e.err != nil {
		return 0, e.err
	}
	id := int64(len(e.events) + 1)
	e.events = append(e.events, model.Event{ID: id, Timestamp: ts, DetectedObject: label, ImagePath: imagePath})
	return id, nil
}

type fakeAlerter struct {
	watchlist map[string]bool
	alerted   []string
}

func (a *fakeAlerter) MaybeAlert(ctx context.Context, label string) bool {
	if a.watchlist[label] {
		a.alerted = append(a.alerted, label)
		return true
	}
	return false
}

type dispatched struct {
	event       model.Event
	watchlisted bool
}

type fakeDispatcher struct {
	mu     sync.Mutex
	got    []dispatched
	waited bool
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, ev model.Event, watchlisted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, dispatched{event: ev, watchlisted: watchlisted})
}

func (d *fakeDispatcher) Wait(time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waited = true
	return true
}

// rig bundles a pipeline with its fakes.
type rig struct {
	camera     *scriptedCamera
	classifier *fakeClassifier
	snapshots  *fakeSnapshots
	events     *fakeEvents
	alerter    *fakeAlerter
	dispatcher *fakeDispatcher
	pipeline   *Pipeline
}

func newRig(t *testing.T, steps []step, labels ...string) *rig {
	t.Helper()
	if len(labels) == 0 {
		labels = []string{"fox"}
	}
	r := &rig{
		camera:     &scriptedCamera{steps: steps},
		classifier: &fakeClassifier{labels: labels},
		snapshots:  &fakeSnapshots{},
		events:     &fakeEvents{},
		alerter:    &fakeAlerter{watchlist: map[string]bool{}},
		dispatcher: &fakeDispatcher{},
	}
	r.pipeline = New(Components{
		Source:     r.camera,
		Detector:   r.camera,
		Classifier: r.classifier,
		Snapshots:  r.snapshots,
		Events:     r.events,
		Alerter:    r.alerter,
		Dispatcher: r.dispatcher,
	}, Options{ClassifierTimeout: time.Second}, newTestLogger(t))
	return r
}

func (r *rig) run(t *testing.T) {
	t.Helper()
	if err := r.pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

type fakeAnnotator struct {
	err     error
	regions []image.Rectangle
}

func (a *fakeAnnotator) Annotate(frame model.Frame, region image.Rectangle, result model.Classification) (model.Frame, error) {
	a.regions = append(a.regions, region)
	if a.err != nil {
		return frame, a.err
	}
	return model.Frame{Data: append([]byte("annotated:"), result.Label...), CapturedAt: frame.CapturedAt}, nil
}
