// Package filing names validated documents and moves them into the success,
// failed and backup folders. Successful documents are nested into a
// model/date hierarchy by Reorganize.
package filing

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

const (
	dateLayoutIn  = "2-Jan-06"
	dateLayoutOut = "02-Jan-06"
)

var reUnsafe = regexp.MustCompile(`[<>:"/\\|?*]`)

// Sanitize replaces characters that are not allowed in file names with '-'
// and trims surrounding whitespace.
func Sanitize(name string) string {
	return strings.TrimSpace(reUnsafe.ReplaceAllString(name, "-"))
}

// FormatDate normalizes a d-Mon-yy date to dd-Mon-yy. Anything else yields "".
func FormatDate(s string) string {
	t, err := time.Parse(dateLayoutIn, strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return t.Format(dateLayoutOut)
}

// Filename builds the success file name for validated fields: the barcode
// and date for the new format, item, document id and date otherwise.
func Filename(f document.Fields, format document.Format) string {
	date := FormatDate(Sanitize(f.Date))
	var name string
	if format.Type() == 3 {
		name = Sanitize(f.Barcode) + "-" + date + ".pdf"
	} else {
		name = Sanitize(f.ItemName) + "-" + Sanitize(f.DocumentID) + "-" + date + ".pdf"
	}
	return Sanitize(name)
}

// UniqueFilename returns name, or name with _1, _2, ... inserted before the
// extension, whichever does not exist in dir yet.
func UniqueFilename(dir, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; exists(filepath.Join(dir, candidate)); i++ {
		candidate = base + "_" + strconv.Itoa(i) + ext
	}
	return candidate
}

var reVersionSuffix = regexp.MustCompile(`^(.*?)_([0-9]+)$`)

// versionedPath returns path if it is free. Otherwise it bumps a trailing
// _N suffix, or adds _1, until the path is free.
func versionedPath(path string) string {
	if !exists(path) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	version := 1
	if m := reVersionSuffix.FindStringSubmatch(base); m != nil {
		n, _ := strconv.Atoi(m[2])
		base, version = m[1], n+1
	}
	for {
		candidate := base + "_" + strconv.Itoa(version) + ext
		if !exists(candidate) {
			return candidate
		}
		version++
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Timestamp formats now as YYYYMMDD_HHMMSS_mmm, the stamp used in scratch
// image names and filing error lines.
func Timestamp() string {
	return Stamp(time.Now())
}

// Stamp formats t as YYYYMMDD_HHMMSS_mmm.
func Stamp(t time.Time) string {
	return t.Format("20060102_150405") + "_" + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}
