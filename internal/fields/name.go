package fields

import (
	"regexp"
	"strings"
)

var (
	reItemName   = regexp.MustCompile(`\b[A-Z]{2}\s+[A-Z0-9\.\-\+x]+(?:\s+[A-Z0-9\.\-\+x]+)*\s*\(.*?\)-[A-Z0-9\-]+`)
	reSTItemLine = regexp.MustCompile(`\bST\s[\w\s.+()-]+`)

	braces = strings.NewReplacer("{", "(", "}", ")")
)

// MatchDocumentName returns the first item name in text, such as
// "ST 1x4x0.22SHT (J04)-CI-RHA", or "".
func MatchDocumentName(text string) string {
	return reItemName.FindString(braces.Replace(normalize(text)))
}

// FormatDocumentName repairs common misreads in an item name and keeps the
// first line that looks like an ST item. Without such a line the repaired
// input is returned.
func FormatDocumentName(name string) string {
	name = strings.ReplaceAll(name, "l", "I")
	name = braces.Replace(name)
	for _, line := range strings.Split(name, "\n") {
		if m := reSTItemLine.FindString(line); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return name
}
