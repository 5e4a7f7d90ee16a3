// Package events carries typed progress notifications from the pipeline to
// whoever is watching: the log, the CLI and websocket clients.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// Event is one notification. Type names the JSON envelope type.
type Event interface {
	Type() string
}

// Progress is a free-form status line.
type Progress struct {
	RunID   string    `json:"run_id,omitempty"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Completed is sent once per processed file.
type Completed struct {
	RunID   string `json:"run_id,omitempty"`
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// BatchDone is sent after every file of batch Index (1-based) has completed.
type BatchDone struct {
	RunID string `json:"run_id,omitempty"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// RunDone closes a run.
type RunDone struct {
	RunID     string        `json:"run_id,omitempty"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Cancelled bool          `json:"cancelled"`
	Duration  time.Duration `json:"duration_ns"`
}

func (Progress) Type() string  { return "progress" }
func (Completed) Type() string { return "completed" }
func (BatchDone) Type() string { return "batch_done" }
func (RunDone) Type() string   { return "run_done" }

// Envelope is the wire form of an event.
type Envelope struct {
	Type    string `json:"type"`
	Payload Event  `json:"payload"`
}

// Wrap builds the envelope for e.
func Wrap(e Event) Envelope { return Envelope{Type: e.Type(), Payload: e} }

// Observer receives events. Notify must not block for long.
type Observer interface {
	Notify(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

// Notify calls f.
func (f ObserverFunc) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Observer = ObserverFunc(func(Event) {})

// Bus fans events out to its subscribers in subscription order.
type Bus struct {
	mu        sync.RWMutex
	next      int
	observers map[int]Observer
	order     []int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{observers: make(map[int]Observer)}
}

// Subscribe adds o and returns a function that removes it again.
func (b *Bus) Subscribe(o Observer) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.observers[id] = o
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.observers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Notify implements Observer.
func (b *Bus) Notify(e Event) {
	b.mu.RLock()
	targets := make([]Observer, 0, len(b.order))
	for _, id := range b.order {
		targets = append(targets, b.observers[id])
	}
	b.mu.RUnlock()

	for _, o := range targets {
		o.Notify(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Channel returns an observer that forwards into a buffered channel. Events
// that do not fit are dropped so a slow reader never stalls the pipeline.
func Channel(size int) (Observer, <-chan Event) {
	ch := make(chan Event, size)
	return ObserverFunc(func(e Event) {
		select {
		case ch <- e:
		default:
			slog.Debug("Dropped event for slow subscriber", "type", e.Type())
		}
	}), ch
}

// LogObserver writes events to slog.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver logs with logger, or the default logger when nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

// Notify implements Observer.
func (l *LogObserver) Notify(e Event) {
	switch ev := e.(type) {
	case Progress:
		l.logger.Info(ev.Message, "run_id", ev.RunID)
	case Completed:
		l.logger.Info("Completed", "run_id", ev.RunID, "path", ev.Path, "success", ev.Success)
	case BatchDone:
		l.logger.Info("Batch finished", "run_id", ev.RunID, "batch", ev.Index, "total", ev.Total)
	case RunDone:
		l.logger.Info("Run finished", "run_id", ev.RunID, "processed", ev.Processed,
			"succeeded", ev.Succeeded, "failed", ev.Failed, "cancelled", ev.Cancelled, "duration", ev.Duration)
	}
}
