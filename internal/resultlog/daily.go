package resultlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DailyLog appends timestamped lines to {dir}/{YYYY-MM-DD}_log.txt.
type DailyLog struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewDailyLog writes into dir, which must exist.
func NewDailyLog(dir string) *DailyLog {
	return &DailyLog{dir: dir, now: time.Now}
}

// Path returns the log file for day.
func (l *DailyLog) Path(day time.Time) string {
	return filepath.Join(l.dir, day.Format(time.DateOnly)+"_log.txt")
}

// Append writes one line. Invalid UTF-8 in message is replaced.
func (l *DailyLog) Append(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	f, err := os.OpenFile(l.Path(now), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // G304: configured log folder
	if err != nil {
		return fmt.Errorf("failed to open daily log: %w", err)
	}
	defer func() { _ = f.Close() }()

	line := now.Format(time.DateTime) + " - " + strings.ToValidUTF8(message, "�") + "\n"
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write daily log: %w", err)
	}
	return nil
}
