package fields

import (
	"regexp"
	"strings"
)

// MinDocumentIDLength is the shortest document id that is kept.
const MinDocumentIDLength = 14

var (
	reSpaces        = regexp.MustCompile(`\s+`)
	reHyphenRuns    = regexp.MustCompile(`-+`)
	reSerialMisread = regexp.MustCompile(`\b(?:S[53]|[53]S)\b`)
	reDashD         = regexp.MustCompile(`-D`)
	reLeadingD      = regexp.MustCompile(`\bD(\d+)`)

	reStructuredID = regexp.MustCompile(`^(.*?)-(?:\d{1,3}/\d|-1/n|\d{1,3}|/d)?$`)
	reSlashDigit   = regexp.MustCompile(`-/(\d)$`)
	reTwoDigits    = regexp.MustCompile(`-(\d{2})$`)
	rePageFraction = regexp.MustCompile(`-(\d{1,3}/\d)$`)
	reBareNumber   = regexp.MustCompile(`-(\d{1,3})$`)
	reFractionTail = regexp.MustCompile(`[^-/]+/[^-/]+$`)
)

// FormatDocumentID cleans an OCR'd document id and reshapes its last
// segment into a page fraction such as 1/3. It returns "" when the result
// is shorter than MinDocumentIDLength or has no fraction.
func FormatDocumentID(text string) string {
	text = reSpaces.ReplaceAllString(text, "")
	text = reHyphenRuns.ReplaceAllString(text, "-")
	text = strings.Trim(text, "-")

	text = reSerialMisread.ReplaceAllString(text, "SS")
	text = reDashD.ReplaceAllString(text, "-0")
	text = reLeadingD.ReplaceAllString(text, "0${1}")

	return acceptDocumentID(reshapeTail(text))
}

func reshapeTail(text string) string {
	m := reStructuredID.FindStringSubmatch(text)
	if m == nil {
		return reshapeLastSegment(text)
	}
	main := m[1]

	if s := reSlashDigit.FindStringSubmatch(text); s != nil {
		return text[:len(text)-len(s[0])] + "-1/" + s[1]
	}
	if s := reTwoDigits.FindStringSubmatch(text); s != nil {
		// two digits are a page fraction with the slash lost, e.g. 13 for 1/3
		return text[:len(text)-len(s[0])] + "-1/" + s[1][1:]
	}
	if s := rePageFraction.FindStringSubmatch(text); s != nil {
		return main + "-" + s[1]
	}
	if s := reBareNumber.FindStringSubmatch(text); s != nil {
		return main + "-1/" + s[1]
	}
	return main + "-1/n"
}

func reshapeLastSegment(text string) string {
	parts := strings.Split(text, "-")
	last := parts[len(parts)-1]
	switch {
	case strings.HasPrefix(last, "/"):
		last = "1" + last
	case strings.HasSuffix(last, "/"):
		last += "n"
	case strings.Contains(last, "/"):
	case len(last) == 2:
		last = last[:1] + "/" + last[1:]
	case len(last) == 1:
		last = "1/" + last
	}
	parts[len(parts)-1] = last
	return strings.Join(parts, "-")
}

func acceptDocumentID(id string) string {
	if len(id) < MinDocumentIDLength || !reFractionTail.MatchString(id) {
		return ""
	}
	return id
}
