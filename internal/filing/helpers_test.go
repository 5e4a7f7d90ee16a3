package filing

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/MeKo-Tech/ocrheader/internal/testutil"
)

type memJournal struct {
	mu    sync.Mutex
	lines []string
}

func (j *memJournal) Append(message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = append(j.lines, message)
	return nil
}

func (j *memJournal) text() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return strings.Join(j.lines, "\n")
}

func touch(t *testing.T, path string) {
	t.Helper()
	testutil.WriteFile(t, path, "%PDF-1.4 "+filepath.Base(path))
}

// tree lists every regular file under root as a slash-separated relative path.
var tree = testutil.Tree
