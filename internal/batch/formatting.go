package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatSummary renders a run summary as text, json or csv.
func FormatSummary(sum Summary, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(sum)
	case "csv":
		return formatCSV(sum)
	case "", "text":
		return formatText(sum), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(sum Summary) (string, error) {
	bts, err := json.MarshalIndent(sum, "", "  ")
	return string(bts), err
}

func formatCSV(sum Summary) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	rows := [][]string{{"file", "status", "message", "destination"}}
	for _, f := range sum.Files {
		rows = append(rows, []string{f.Path, f.Status, f.Message, f.Destination})
	}
	for _, path := range sum.Rejected {
		rows = append(rows, []string{path, "Rejected", "Non-PDF file", ""})
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}

func formatText(sum Summary) string {
	var output strings.Builder
	for _, f := range sum.Files {
		line := fmt.Sprintf("%-9s %s", f.Status, f.Path)
		if f.Destination != "" {
			line += " -> " + f.Destination
		}
		if f.Message != "" {
			line += " (" + f.Message + ")"
		}
		output.WriteString(line + "\n")
	}
	for _, path := range sum.Rejected {
		output.WriteString(fmt.Sprintf("%-9s %s\n", "Rejected", path))
	}
	output.WriteString("Run " + sum.RunID + ": " +
		strconv.Itoa(sum.Succeeded) + " succeeded, " +
		strconv.Itoa(sum.Failed) + " failed, " +
		strconv.Itoa(sum.Skipped) + " skipped in " +
		strconv.Itoa(sum.Batches) + " batches (" + sum.Duration.Round(time.Millisecond).String() + ")")
	if sum.Stopped {
		output.WriteString(", stopped")
	}
	output.WriteString("\n")
	return output.String()
}
