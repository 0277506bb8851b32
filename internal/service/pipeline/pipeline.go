package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync/atomic"
	"time"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// FrameSource yields frames until io.EOF.
type FrameSource interface {
	Next(ctx context.Context) (model.Frame, error)
}

// MotionDetector turns a frame into a motion signal. It never fails.
type MotionDetector interface {
	Observe(frame model.Frame) model.MotionSignal
}

// Classifier labels the moving region of a frame.
type Classifier interface {
	Classify(ctx context.Context, frame model.Frame, region *image.Rectangle) (model.Classification, error)
}

// SnapshotSaver persists the frame behind an event and returns its path.
// Discard removes a saved snapshot that no event refers to.
type SnapshotSaver interface {
	Save(frame model.Frame) (string, error)
	Discard(path string) error
}

// Annotator marks the classified region on a snapshot.
type Annotator interface {
	Annotate(frame model.Frame, region image.Rectangle, result model.Classification) (model.Frame, error)
}

// EventWriter appends detection events.
type EventWriter interface {
	InsertEvent(ctx context.Context, ts time.Time, label, imagePath string) (int64, error)
}

// Alerter plays the local alert for watchlisted labels.
type Alerter interface {
	MaybeAlert(ctx context.Context, label string) bool
}

// Dispatcher fans a persisted event out to the notification sinks.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev model.Event, watchlisted bool)
	Wait(timeout time.Duration) bool
}

// Components are the collaborators the pipeline drives.
type Components struct {
	Source     FrameSource
	Detector   MotionDetector
	Classifier Classifier
	Snapshots  SnapshotSaver
	Annotator  Annotator // optional
	Events     EventWriter
	Alerter    Alerter
	Dispatcher Dispatcher
}

// Options tune the pipeline.
type Options struct {
	// ClassifierTimeout bounds one classification. Zero means no bound.
	ClassifierTimeout time.Duration
	// DrainTimeout bounds how long Run waits for in-flight notifications on exit.
	DrainTimeout time.Duration
}

// Stats is a snapshot of the pipeline counters.
type Stats struct {
	State              string `json:"state"`
	Frames             int64  `json:"frames"`
	FrameErrors        int64  `json:"frame_errors"`
	Episodes           int64  `json:"episodes"`
	Events             int64  `json:"events"`
	ClassifierFailures int64  `json:"classifier_failures"`
	StorageFailures    int64  `json:"storage_failures"`
	Alerts             int64  `json:"alerts"`
	Running            bool   `json:"running"`
}

// Pipeline is the capture loop. Frame handling is strictly sequential; only
// notification delivery and alert playback leave the loop goroutine.
type Pipeline struct {
	c      Components
	opts   Options
	logger *logger.Logger

	// state is written by the loop and read by Stats.
	state              atomic.Int32
	running            atomic.Bool
	frames             atomic.Int64
	frameErrors        atomic.Int64
	episodes           atomic.Int64
	events             atomic.Int64
	classifierFailures atomic.Int64
	storageFailures    atomic.Int64
	alerts             atomic.Int64
}

// New creates a Pipeline in the Idle state.
func New(c Components, opts Options, logger *logger.Logger) *Pipeline {
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 10 * time.Second
	}
	return &Pipeline{c: c, opts: opts, logger: logger}
}

// State returns the current episode state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Stats returns the current counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		State:              p.State().String(),
		Frames:             p.frames.Load(),
		FrameErrors:        p.frameErrors.Load(),
		Episodes:           p.episodes.Load(),
		Events:             p.events.Load(),
		ClassifierFailures: p.classifierFailures.Load(),
		StorageFailures:    p.storageFailures.Load(),
		Alerts:             p.alerts.Load(),
		Running:            p.running.Load(),
	}
}

// Run pulls frames until the source ends or ctx is cancelled. Both are normal
// termination and return nil. Per-frame faults are logged and skipped.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline already running")
	}
	defer p.running.Store(false)

	p.logger.Info("🎬 Detection pipeline started")
	defer func() {
		if !p.c.Dispatcher.Wait(p.opts.DrainTimeout) {
			p.logger.Warning("Some notifications were still in flight at shutdown")
		}
		p.logger.Info("🛑 Detection pipeline stopped after %d frames, %d events", p.frames.Load(), p.events.Load())
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := p.c.Source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.logger.Info("Frame source ended")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			p.frameErrors.Add(1)
			if errors.Is(err, model.ErrTransientIO) {
				p.logger.Warning("Skipping frame: %v", err)
			} else {
				p.logger.Error("Frame source error: %v", err)
			}
			continue
		}

		p.frames.Add(1)
		p.step(ctx, frame)
	}
}

// step advances the episode state machine by one frame.
func (p *Pipeline) step(ctx context.Context, frame model.Frame) {
	signal := p.c.Detector.Observe(frame)

	if !signal.Present {
		if p.State() != Idle {
			p.logger.Info("Motion episode ended")
		}
		p.state.Store(int32(Idle))
		return
	}

	if p.State() != Idle {
		return
	}

	p.state.Store(int32(MotionActive))
	p.episodes.Add(1)
	p.logger.Info("📹 Motion detected, classifying")

	p.handleEpisode(ctx, frame, signal.Region)
	p.state.Store(int32(Classified))
}

// handleEpisode runs the once-per-episode work: classify, persist, alert, notify.
func (p *Pipeline) handleEpisode(ctx context.Context, frame model.Frame, region *image.Rectangle) {
	result, err := p.classify(ctx, frame, region)
	if err != nil {
		p.classifierFailures.Add(1)
		p.logger.Error("Classification failed, skipping episode: %v", err)
		return
	}

	label, err := model.NormalizeLabel(result.Label)
	if err != nil {
		label = model.UnknownLabel
	}

	snapshot := frame
	if p.c.Annotator != nil && region != nil {
		annotated, err := p.c.Annotator.Annotate(frame, *region, model.Classification{Label: label, Confidence: result.Confidence})
		if err != nil {
			p.logger.Warning("Failed to annotate snapshot, saving original: %v", err)
		} else {
			snapshot = annotated
		}
	}

	imagePath, err := p.c.Snapshots.Save(snapshot)
	if err != nil {
		p.storageFailures.Add(1)
		p.logger.Error("Failed to save snapshot for %s: %v", label, err)
		return
	}

	ts := frame.CapturedAt.Truncate(time.Second)
	id, err := p.c.Events.InsertEvent(ctx, ts, label, imagePath)
	if err != nil {
		p.storageFailures.Add(1)
		p.logger.Error("Failed to record %s event: %v", label, err)
		if err := p.c.Snapshots.Discard(imagePath); err != nil {
			p.logger.Error("Orphaned snapshot %s: %v", imagePath, err)
		}
		return
	}
	p.events.Add(1)

	ev := model.Event{
		ID:             id,
		Timestamp:      ts,
		DetectedObject: label,
		ImagePath:      imagePath,
	}
	p.logger.Info("🦊 Event %d: %s (%.2f) at %s", id, label, result.Confidence, ev.FormattedTimestamp())

	watchlisted := p.c.Alerter.MaybeAlert(ctx, label)
	if watchlisted {
		p.alerts.Add(1)
	}
	p.c.Dispatcher.Dispatch(ctx, ev, watchlisted)
}

type classifyResult struct {
	res model.Classification
	err error
}

// classify runs the classifier bounded by ClassifierTimeout. A call that times
// out is abandoned; its result is discarded.
func (p *Pipeline) classify(ctx context.Context, frame model.Frame, region *image.Rectangle) (model.Classification, error) {
	if p.opts.ClassifierTimeout <= 0 {
		return p.c.Classifier.Classify(ctx, frame, region)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.ClassifierTimeout)
	defer cancel()

	done := make(chan classifyResult, 1)
	go func() {
		res, err := p.c.Classifier.Classify(ctx, frame, region)
		done <- classifyResult{res: res, err: err}
	}()

	select {
	case r := <-done:
		return r.res, r.err
	case <-ctx.Done():
		return model.Classification{}, fmt.Errorf("classifier timed out after %v: %w", p.opts.ClassifierTimeout, ctx.Err())
	}
}
