package filing

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

// Folder names used inside the success root.
const (
	ErrorFolder  = "Error"
	NoDateFolder = "No Date"
)

var (
	reCanonicalName = regexp.MustCompile(`^(.*?)-(S.*?)(?:-(\d{1,2}-[A-Za-z]{3}-\d{2}))?(?:_(\d+))?\.pdf`)
	reCXName        = regexp.MustCompile(`^.+?-CX-(S[^-]*)(?:-(\d{1,2}-[A-Za-z]{3}-\d{2}))?$`)
	reModelPrefix   = regexp.MustCompile(`^(.*?)-(?:SS|S)`)
	reModelValid    = regexp.MustCompile(`^.+?-\b[A-Z0-9]{2}\b-\b[A-Z0-9]{3}\b$`)
	reModelCX       = regexp.MustCompile(`^.+?-\bCX$`)
	reParenSpaces   = regexp.MustCompile(`\(\s*([^\)]+?)\s*\)`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reSerialPrefix  = regexp.MustCompile(`^(?:S[35]|5S)(-|$)`)
	reDayMonthYear  = regexp.MustCompile(`^(\d{1,2})-([A-Za-z]{3})-(\d{2})$`)
)

// Hint describes the document whose filing triggered a reorganization.
// Manual runs use the zero Hint, which behaves like an old-format document.
type Hint struct {
	Type     int
	Barcode  string
	ItemName string
	Date     string
	Version  string
}

// HintFor builds the hint for a filed record.
func HintFor(f document.Fields, format document.Format) Hint {
	return Hint{
		Type:     format.Type(),
		Barcode:  f.Barcode,
		ItemName: f.ItemName,
		Date:     f.Date,
		Version:  f.Version,
	}
}

func (h Hint) oldFormat() bool { return h.Type <= 1 }

// newFolder returns the item/date folder used for new-format files whose
// names do not follow the model-serial pattern.
func (h Hint) newFolder() (string, bool) {
	item, date := strings.TrimSpace(h.ItemName), strings.TrimSpace(h.Date)
	if item == "" || date == "" {
		return "", false
	}
	return filepath.Join(Sanitize(item), Sanitize(date)), true
}

// Move is one file relocation performed by Reorganize.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
	Pass int    `json:"pass"`
}

// MoveReport lists the moves of one reorganization run.
type MoveReport struct {
	Moves []Move
}

// Len returns the number of moves.
func (r MoveReport) Len() int { return len(r.Moves) }

// Destination returns where the file at from ended up.
func (r MoveReport) Destination(from string) (string, bool) {
	for _, m := range r.Moves {
		if m.From == from {
			return m.To, true
		}
	}
	return "", false
}

// nameParts is a file name split by the canonical pattern.
type nameParts struct {
	serial  string
	date    string
	version string
}

func parseName(name string) (nameParts, bool) {
	if m := reCanonicalName.FindStringSubmatch(name); m != nil {
		return nameParts{serial: m[2], date: m[3], version: m[4]}, true
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if m := reCXName.FindStringSubmatch(stem); m != nil {
		return nameParts{serial: m[1], date: m[2]}, true
	}
	return nameParts{}, false
}

// target builds model-serial-date[_v].pdf and the date folder it belongs in.
func (p nameParts) target(model string) (folder, name string) {
	stem := model + "-" + normalizeSerial(p.serial)
	date := correctDate(p.date)
	if date != NoDateFolder {
		stem += "-" + date
	}
	if p.version != "" {
		stem += "_" + p.version
	}
	return date, stem + ".pdf"
}

// Reorganize nests the loose files at the top of root into model/date
// folders. Files with canonical names and a valid model go first; the rest
// are matched against existing folders; whatever is still loose ends up in
// the Error folder. Running it again on an organized tree moves nothing.
func Reorganize(root string, hint Hint) (MoveReport, error) {
	var report MoveReport
	r := reorganizer{root: root, hint: hint, report: &report}

	for pass, step := range []func(string) error{r.byPattern, r.byFolderMatch, r.toErrorFolder} {
		files, err := looseFiles(root)
		if err != nil {
			return report, err
		}
		r.pass = pass + 1
		for _, name := range files {
			if err := step(name); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

type reorganizer struct {
	root   string
	hint   Hint
	pass   int
	report *MoveReport
}

func (r *reorganizer) byPattern(raw string) error {
	name := normalizeName(raw)
	model := extractModelName(name)
	valid := isValidModelName(model)
	if !r.hint.oldFormat() {
		model = Sanitize(r.hint.Barcode)
	}

	parts, ok := parseName(name)
	if !ok {
		if folder, ok := r.hint.newFolder(); ok && r.hint.Type == 3 {
			return r.move(raw, filepath.Join(folder, name))
		}
		return nil
	}
	if !valid || model == "" {
		return nil
	}
	dateFolder, target := parts.target(model)
	return r.move(raw, filepath.Join(model, dateFolder, target))
}

func (r *reorganizer) byFolderMatch(raw string) error {
	name := normalizeName(raw)
	model := extractModelName(name)
	if !r.hint.oldFormat() && r.hint.Barcode != "" {
		model = Sanitize(r.hint.Barcode)
	}

	if m := reCanonicalName.FindStringSubmatch(name); m != nil {
		best, err := findBestMatch(model, r.root)
		if err != nil {
			return err
		}
		if best != "" {
			parts := nameParts{serial: m[2], date: m[3], version: m[4]}
			dateFolder, target := parts.target(model)
			return r.move(raw, filepath.Join(best, dateFolder, target))
		}
	}

	if folder, ok := r.hint.newFolder(); ok && r.hint.Version == document.VersionNew {
		return r.move(raw, filepath.Join(folder, name))
	}
	return nil
}

func (r *reorganizer) toErrorFolder(raw string) error {
	return r.move(raw, filepath.Join(ErrorFolder, raw))
}

// move relocates root/raw to root/rel, creating folders and bumping the
// version suffix on collision.
func (r *reorganizer) move(raw, rel string) error {
	from := filepath.Join(r.root, raw)
	to := filepath.Join(r.root, rel)
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("create folder for %s: %w", raw, err)
	}
	to = versionedPath(to)
	if err := moveFile(from, to); err != nil {
		return fmt.Errorf("reorganize %s: %w", raw, err)
	}
	r.report.Moves = append(r.report.Moves, Move{From: from, To: to, Pass: r.pass})
	return nil
}

// looseFiles lists the regular files directly inside root, sorted by name.
func looseFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func normalizeName(name string) string {
	return removeSpacesInParentheses(strings.TrimSpace(reWhitespace.ReplaceAllString(name, " ")))
}

func removeSpacesInParentheses(s string) string {
	s = reParenSpaces.ReplaceAllString(s, "(${1})")
	for strings.Contains(s, "))") {
		s = strings.ReplaceAll(s, "))", ")")
	}
	for strings.Contains(s, "((") {
		s = strings.ReplaceAll(s, "((", "(")
	}
	return s
}

// extractModelName returns the part of name before the -S/-SS serial.
func extractModelName(name string) string {
	name = strings.TrimSpace(reWhitespace.ReplaceAllString(name, " "))
	if m := reModelPrefix.FindStringSubmatch(name); m != nil {
		return removeSpacesInParentheses(m[1])
	}
	return removeSpacesInParentheses(name)
}

// isValidModelName accepts models ending in -XX-XXX or -CX.
func isValidModelName(model string) bool {
	return reModelValid.MatchString(model) || reModelCX.MatchString(model)
}

// normalizeSerial fixes serial prefixes misread as S, S3, S5 or 5S.
func normalizeSerial(serial string) string {
	if strings.HasPrefix(serial, "S-") {
		return "SS-" + serial[2:]
	}
	return reSerialPrefix.ReplaceAllString(serial, "SS${1}")
}

// correctDate validates a d-Mon-yy date. A day starting with 4 is read as
// 1, since the two are confused in handwriting. Invalid or missing dates
// become NoDateFolder.
func correctDate(date string) string {
	m := reDayMonthYear.FindStringSubmatch(date)
	if m == nil {
		return NoDateFolder
	}
	day := m[1]
	if len(day) == 1 {
		day = "0" + day
	}
	if day[0] == '4' {
		day = "1" + day[1:]
	}
	corrected := day + "-" + m[2] + "-" + m[3]
	if _, err := time.Parse(dateLayoutOut, corrected); err != nil {
		return NoDateFolder
	}
	return corrected
}
