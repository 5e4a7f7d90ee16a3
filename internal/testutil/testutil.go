// Package testutil builds synthetic scans, PDFs and folder trees for tests.
package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// MkdirAll creates every dir and fails the test on error.
func MkdirAll(t *testing.T, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(dir, 0o750))
	}
}

// ListFiles lists the regular files below root as slash-separated
// relative paths, sorted. A missing root yields an empty list.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.Type().IsRegular() {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Tree is ListFiles for tests.
func Tree(t *testing.T, root string) []string {
	t.Helper()
	files, err := ListFiles(root)
	require.NoError(t, err)
	return files
}
