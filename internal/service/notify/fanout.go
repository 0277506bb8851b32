package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// AlertTitle is the title of every remote notification.
const AlertTitle = "Animal Alert!"

// Notification is what every sink receives for one persisted event.
type Notification struct {
	Event       model.Event
	Watchlisted bool
	Title       string
	Body        string
}

// NewNotification derives the title and body from the event.
func NewNotification(ev model.Event, watchlisted bool) Notification {
	return Notification{
		Event:       ev,
		Watchlisted: watchlisted,
		Title:       AlertTitle,
		Body:        fmt.Sprintf("%s detected at %s", ev.DetectedObject, ev.FormattedTimestamp()),
	}
}

// Sink is an independent outbound notification channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// Fanout delivers each event to every sink concurrently. A failing or slow
// sink never affects another sink or the caller.
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
	logger  *logger.Logger
	wg      sync.WaitGroup
}

// NewFanout creates a Fanout; each delivery is bounded by timeout.
func NewFanout(timeout time.Duration, logger *logger.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:   sinks,
		timeout: timeout,
		logger:  logger,
	}
}

// Sinks returns the configured sink names.
func (f *Fanout) Sinks() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}
	return names
}

// Dispatch starts one delivery per sink and returns immediately. Deliveries
// outlive cancellation of ctx up to the fanout timeout so that an event
// persisted just before shutdown still goes out.
func (f *Fanout) Dispatch(ctx context.Context, ev model.Event, watchlisted bool) {
	n := NewNotification(ev, watchlisted)
	base := context.WithoutCancel(ctx)

	for _, sink := range f.sinks {
		f.wg.Add(1)
		go f.deliver(base, sink, n)
	}
}

func (f *Fanout) deliver(ctx context.Context, sink Sink, n Notification) {
	defer f.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Sink %s panicked on event %d: %v", sink.Name(), n.Event.ID, r)
		}
	}()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	if err := sink.Deliver(ctx, n); err != nil {
		f.logger.Error("Sink %s failed for event %d: %v", sink.Name(), n.Event.ID, err)
		return
	}
	f.logger.Info("Sink %s delivered event %d (%s)", sink.Name(), n.Event.ID, n.Event.DetectedObject)
}

// Wait blocks until all in-flight deliveries finish or timeout elapses and
// reports whether they all finished.
func (f *Fanout) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		f.logger.Warning("Abandoning in-flight notifications after %v", timeout)
		return false
	}
}
