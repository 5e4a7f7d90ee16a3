package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule polls the input folder every five seconds.
const DefaultSchedule = "@every 5s"

// Runner starts runs over a folder. *Scheduler implements it.
type Runner interface {
	Run(ctx context.Context, dir string) (Summary, error)
	Running() bool
}

// Watcher starts a run whenever the input folder holds files and no run is
// active. It checks on a cron schedule and, when notify is set, as soon as
// fsnotify reports a new file.
type Watcher struct {
	runner   Runner
	dir      string
	schedule string
	notify   bool
	trigger  chan struct{}
	onRun    func(Summary, error)

	// folder state at the last ErrTooManyFiles; unchanged means no retry
	overLimit string
}

// NewWatcher watches dir. An empty schedule uses DefaultSchedule.
func NewWatcher(r Runner, dir, schedule string, notify bool) *Watcher {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Watcher{
		runner:   r,
		dir:      dir,
		schedule: schedule,
		notify:   notify,
		trigger:  make(chan struct{}, 1),
	}
}

// OnRun registers a callback invoked after every run the watcher starts.
func (w *Watcher) OnRun(fn func(Summary, error)) *Watcher {
	w.onRun = fn
	return w
}

// Start blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(w.schedule, w.poke); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", w.schedule, err)
	}
	c.Start()
	defer c.Stop()

	if w.notify {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create fsnotify watcher: %w", err)
		}
		defer func() { _ = fw.Close() }()
		if err := fw.Add(w.dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", w.dir, err)
		}
		go w.forward(ctx, fw)
	}

	slog.Info("Watching input folder", "dir", w.dir, "schedule", w.schedule, "notify", w.notify)
	w.poke()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.trigger:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) forward(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-fw.Events:
			if !ok {
				return
			}
			if triggers(e.Op) {
				w.poke()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// triggers reports whether op announces a new entry. Writes are left to
// the schedule so a file still being copied in is not picked up early.
func triggers(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Rename) != 0
}

// poke requests a check; requests made while one is pending coalesce.
func (w *Watcher) poke() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) tick(ctx context.Context) {
	if w.runner.Running() {
		slog.Debug("Run in progress, skipping tick")
		return
	}
	state, ok := folderState(w.dir)
	if !ok {
		return
	}
	if w.overLimit != "" && state == w.overLimit {
		slog.Debug("Input folder still over the file limit, waiting for a change", "dir", w.dir)
		return
	}
	w.overLimit = ""

	sum, err := w.runner.Run(ctx, w.dir)
	switch {
	case errors.Is(err, ErrBusy):
		slog.Debug("Run in progress, skipping tick")
	case errors.Is(err, ErrTooManyFiles):
		slog.Warn("Input folder over the file limit", "dir", w.dir, "error", err)
		// the run may have swept non-PDFs, so take the state after it
		w.overLimit, _ = folderState(w.dir)
	case err != nil:
		slog.Error("Run failed", "dir", w.dir, "error", err)
	}
	if w.onRun != nil {
		w.onRun(sum, err)
	}
	// checks requested during the run are covered by it
	select {
	case <-w.trigger:
	default:
	}
}

// folderState fingerprints the regular files in dir by name, size and
// modification time. ok is false when there are none.
func folderState(dir string) (state string, ok bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("Cannot read input folder", "dir", dir, "error", err)
		return "", false
	}
	var b strings.Builder
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%s|%d|%d\n", e.Name(), info.Size(), info.ModTime().UnixNano())
		ok = true
	}
	return b.String(), ok
}
