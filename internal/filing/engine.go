package filing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

// Journal receives the operator-facing log lines of filing operations.
type Journal interface {
	Append(message string) error
}

// Roots are the destination folders managed by the Engine.
type Roots struct {
	Success string
	Failed  string
	Backup  string
}

// Engine performs all destination mutations under one lock, so concurrent
// documents never interleave their copies, moves and reorganizations.
type Engine struct {
	mu      sync.Mutex
	roots   Roots
	journal Journal
}

// NewEngine returns an Engine writing into roots. journal may be nil.
func NewEngine(roots Roots, journal Journal) *Engine {
	return &Engine{roots: roots, journal: journal}
}

// Roots returns the configured destination folders.
func (e *Engine) Roots() Roots { return e.roots }

// Outcome is what File did with a record.
type Outcome struct {
	Decision document.FilingDecision
	Report   MoveReport
	Err      error
}

// File moves rec.SourcePath according to rec.Status. A successful document
// is copied into the success folder under its generated name, the success
// folder is reorganized, and the source is moved to backup. A failed
// document is moved to the failed folder under its original name.
// Errors are journaled and returned in the Outcome; the source is then
// moved to the failed folder if it is still in place.
func (e *Engine) File(ctx context.Context, rec *document.Record) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Outcome{Err: err}
	}

	var (
		out  Outcome
		err  error
		base = filepath.Base(rec.SourcePath)
	)
	if rec.Status == document.StatusSuccess {
		out, err = e.fileSuccess(rec, base)
	} else {
		out, err = e.fileFailure(rec, base)
	}
	if err != nil {
		if exists(rec.SourcePath) {
			if moveErr := moveFile(rec.SourcePath, filepath.Join(e.roots.Failed, base)); moveErr != nil {
				err = errors.Join(err, moveErr)
			}
		}
		e.note(fmt.Sprintf("%s - Error processing %s: %v", Timestamp(), rec.SourcePath, err))
		slog.Error("Filing failed", "file", rec.SourcePath, "error", err)
		out.Err = err
	}
	return out
}

func (e *Engine) fileSuccess(rec *document.Record, base string) (Outcome, error) {
	name := Filename(rec.Fields, rec.Format())
	successPath := filepath.Join(e.roots.Success, UniqueFilename(e.roots.Success, name))
	out := Outcome{Decision: document.FilingDecision{
		DestinationFolder: e.roots.Success,
		FinalFilename:     filepath.Base(successPath),
	}}

	if !exists(rec.SourcePath) {
		return out, fmt.Errorf("source %s: %w", base, os.ErrNotExist)
	}
	if err := copyFile(rec.SourcePath, successPath); err != nil {
		e.note(fmt.Sprintf("ERROR: File %s move to success failed.", base))
		return out, fmt.Errorf("copy to success: %w", err)
	}

	report, err := Reorganize(e.roots.Success, HintFor(rec.Fields, rec.Format()))
	out.Report = report
	if to, ok := report.Destination(successPath); ok {
		out.Decision.DestinationFolder = filepath.Dir(to)
		out.Decision.FinalFilename = filepath.Base(to)
	}
	if err != nil {
		return out, fmt.Errorf("reorganize success folder: %w", err)
	}
	e.note(fmt.Sprintf("SUCCESS: %s moved to Success folder. New file name is %s.", base, filepath.Base(successPath)))

	backupPath := filepath.Join(e.roots.Backup, UniqueFilename(e.roots.Backup, base))
	if err := moveFile(rec.SourcePath, backupPath); err != nil {
		return out, fmt.Errorf("move to backup: %w", err)
	}
	e.note(fmt.Sprintf("BACKUP: %s copied to Backup folder.", base))
	slog.Info("Filed document", "file", base, "name", out.Decision.FinalFilename,
		"folder", out.Decision.DestinationFolder, "reorganized", report.Len())
	return out, nil
}

func (e *Engine) fileFailure(rec *document.Record, base string) (Outcome, error) {
	out := Outcome{Decision: document.FilingDecision{DestinationFolder: e.roots.Failed, FinalFilename: base}}
	if !exists(rec.SourcePath) {
		return out, fmt.Errorf("source %s: %w", base, os.ErrNotExist)
	}
	if err := moveFile(rec.SourcePath, out.Decision.Path()); err != nil {
		return out, fmt.Errorf("move to failed: %w", err)
	}
	e.note(fmt.Sprintf("FAILED: %s moved to Failed folder.", base))
	slog.Info("Filed failed document", "file", base, "reasons", rec.Message())
	return out, nil
}

// Reject moves a file that never entered the pipeline, such as a non-PDF,
// into the failed folder and journals message.
func (e *Engine) Reject(path, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := moveFile(path, filepath.Join(e.roots.Failed, filepath.Base(path))); err != nil {
		return fmt.Errorf("reject %s: %w", filepath.Base(path), err)
	}
	e.note(message)
	return nil
}

// Organize reorganizes the success folder as an old-format run would.
func (e *Engine) Organize(ctx context.Context) (MoveReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return MoveReport{}, err
	}
	report, err := Reorganize(e.roots.Success, Hint{Type: 1})
	if err != nil {
		return report, err
	}
	slog.Info("Organized success folder", "moves", report.Len())
	return report, nil
}

func (e *Engine) note(message string) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Append(message); err != nil {
		slog.Warn("Failed to write daily log", "error", err)
	}
}

// moveFile renames src to dst, copying across devices when needed.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src) //nolint:gosec // G304: paths come from the configured folders
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}
