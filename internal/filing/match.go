package filing

import (
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// folderMatchCutoff is the lowest similarity ratio accepted by findBestMatch.
const folderMatchCutoff = 0.8

// findBestMatch returns the folder in root named model, or else the most
// similar folder name with a ratio of at least folderMatchCutoff. Ties go to
// the longer name. It returns "" when nothing is close enough.
func findBestMatch(model, root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", root, err)
	}

	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			if e.Name() == model {
				return model, nil
			}
			folders = append(folders, e.Name())
		}
	}
	return closestMatch(model, folders, folderMatchCutoff), nil
}

func closestMatch(word string, candidates []string, cutoff float64) string {
	best, bestRatio := "", 0.0
	target := chars(word)
	for _, c := range candidates {
		ratio := similarity(chars(c), target)
		if ratio < cutoff {
			continue
		}
		if ratio > bestRatio || (ratio == bestRatio && longerName(c, best)) {
			best, bestRatio = c, ratio
		}
	}
	return best
}

// similarity is difflib's ratio: twice the matched characters over the
// total length of both sequences.
func similarity(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}

func longerName(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

func chars(s string) []string {
	return strings.Split(s, "")
}
