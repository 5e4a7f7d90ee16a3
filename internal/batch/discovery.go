package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// eligiblePattern selects input files. The match is case-sensitive, so
// "SCAN.PDF" is treated as a non-PDF.
const eligiblePattern = "*.pdf"

// Discover lists the regular files directly inside dir, split into
// eligible PDFs and everything else. Both lists are sorted.
func Discover(dir string) (pdfs, others []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot access %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if isEligible(e.Name()) {
			pdfs = append(pdfs, path)
		} else {
			others = append(others, path)
		}
	}
	sort.Strings(pdfs)
	sort.Strings(others)
	return pdfs, others, nil
}

func isEligible(name string) bool {
	matched, _ := filepath.Match(eligiblePattern, filepath.Base(name))
	return matched
}

// split cuts files into consecutive batches of at most size.
func split(files []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var batches [][]string
	for i := 0; i < len(files); i += size {
		batches = append(batches, files[i:min(i+size, len(files))])
	}
	return batches
}
