package support

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/testutil"
)

// RegisterSteps binds the step definitions to sc.
func (tc *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a new-format scan "([^"]*)" with barcode "([^"]*)", item "([^"]*)" and date "([^"]*)"$`, tc.aNewFormatScan)
	sc.Step(`^an old-format scan "([^"]*)" reading:$`, tc.anOldFormatScan)
	sc.Step(`^an unreadable scan "([^"]*)"$`, tc.anUnreadableScan)
	sc.Step(`^a file "([^"]*)" in the input folder$`, tc.aFileInTheInputFolder)
	sc.Step(`^a loose file "([^"]*)" in the success folder$`, tc.aLooseFileInTheSuccessFolder)

	sc.Step(`^I run the pipeline$`, tc.iRunThePipeline)
	sc.Step(`^I organize the success folder$`, tc.iOrganizeTheSuccessFolder)

	sc.Step(`^the run reports (\d+) succeeded and (\d+) failed$`, tc.theRunReports)
	sc.Step(`^the input folder is empty$`, tc.theInputFolderIsEmpty)
	sc.Step(`^the (success|failed|backup) folder contains "([^"]*)"$`, tc.theFolderContains)
	sc.Step(`^the success folder holds (\d+) files? nested below it ending in "([^"]*)"$`, tc.theSuccessFolderHoldsNested)
	sc.Step(`^the progress log contains "([^"]*)"$`, tc.theProgressLogContains)
	sc.Step(`^today's result log has a "([^"]*)" record for "([^"]*)" with message "([^"]*)"$`, tc.theResultLogHasRecord)
	sc.Step(`^today's result log has (\d+) records?$`, tc.theResultLogHasRecords)
	sc.Step(`^the daily log file exists$`, tc.theDailyLogFileExists)
	sc.Step(`^(\d+) files? (?:was|were) moved$`, tc.filesWereMoved)
}

func (tc *TestContext) addScan(name string, s scan) error {
	tc.mu.Lock()
	tc.scans[name] = s
	tc.mu.Unlock()
	return os.WriteFile(filepath.Join(tc.Data, name), []byte("%PDF-1.4 "+name), 0o600)
}

func (tc *TestContext) aNewFormatScan(name, barcode, item, date string) error {
	return tc.addScan(name, scan{layout: document.NewWithBarcode{BarcodeHeader: document.BarcodeHeader{
		Barcode:  barcode,
		ItemName: item,
		Date:     date,
	}}})
}

func (tc *TestContext) anOldFormatScan(name string, table *godog.Table) error {
	var texts []string
	for _, row := range table.Rows {
		for _, cell := range row.Cells {
			texts = append(texts, cell.Value)
		}
	}
	return tc.addScan(name, scan{layout: document.OldPlain{}, regions: texts})
}

func (tc *TestContext) anUnreadableScan(name string) error {
	return tc.addScan(name, scan{layout: document.OldPlain{}})
}

func (tc *TestContext) aFileInTheInputFolder(name string) error {
	return os.WriteFile(filepath.Join(tc.Data, name), []byte(name), 0o600)
}

func (tc *TestContext) aLooseFileInTheSuccessFolder(name string) error {
	return os.WriteFile(filepath.Join(tc.Roots.Success, name), []byte("%PDF-1.4 "+name), 0o600)
}

func (tc *TestContext) iRunThePipeline(ctx context.Context) error {
	tc.summary, tc.runErr = tc.scheduler().Run(ctx, tc.Data)
	return tc.runErr
}

func (tc *TestContext) iOrganizeTheSuccessFolder(ctx context.Context) error {
	var err error
	tc.report, err = tc.filer.Organize(ctx)
	return err
}

func (tc *TestContext) theRunReports(succeeded, failed int) error {
	if tc.summary.Succeeded != succeeded || tc.summary.Failed != failed {
		return fmt.Errorf("expected %d succeeded and %d failed, got %d and %d",
			succeeded, failed, tc.summary.Succeeded, tc.summary.Failed)
	}
	return nil
}

func (tc *TestContext) theInputFolderIsEmpty() error {
	files, err := testutil.ListFiles(tc.Data)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		return fmt.Errorf("input folder still holds %v", files)
	}
	return nil
}

func (tc *TestContext) root(name string) string {
	switch name {
	case "success":
		return tc.Roots.Success
	case "failed":
		return tc.Roots.Failed
	default:
		return tc.Roots.Backup
	}
}

func (tc *TestContext) theFolderContains(folder, rel string) error {
	files, err := testutil.ListFiles(tc.root(folder))
	if err != nil {
		return err
	}
	for _, f := range files {
		if f == rel {
			return nil
		}
	}
	return fmt.Errorf("%s folder does not contain %q, it holds %v", folder, rel, files)
}

func (tc *TestContext) theSuccessFolderHoldsNested(n int, suffix string) error {
	files, err := testutil.ListFiles(tc.Roots.Success)
	if err != nil {
		return err
	}
	if len(files) != n {
		return fmt.Errorf("expected %d files in the success folder, got %v", n, files)
	}
	for _, f := range files {
		if path.Dir(f) == "." {
			return fmt.Errorf("%s was left at the top of the success folder", f)
		}
		if !strings.HasSuffix(f, suffix) {
			return fmt.Errorf("%s does not end in %q", f, suffix)
		}
	}
	return nil
}

func (tc *TestContext) theProgressLogContains(text string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for _, m := range tc.messages {
		if strings.Contains(m, text) {
			return nil
		}
	}
	return fmt.Errorf("no progress line contains %q:\n%s", text, strings.Join(tc.messages, "\n"))
}

func (tc *TestContext) theResultLogHasRecord(status, file, message string) error {
	records, err := tc.sink.Read(time.Now())
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.FileName == file {
			if r.Status != status || r.ErrorMessage != message {
				return fmt.Errorf("record for %s is %s/%q, want %s/%q", file, r.Status, r.ErrorMessage, status, message)
			}
			return nil
		}
	}
	return fmt.Errorf("no result record for %s", file)
}

func (tc *TestContext) theResultLogHasRecords(n int) error {
	records, err := tc.sink.Read(time.Now())
	if err != nil {
		return err
	}
	if len(records) != n {
		return fmt.Errorf("result log has %d records, want %d", len(records), n)
	}
	return nil
}

func (tc *TestContext) theDailyLogFileExists() error {
	files, err := testutil.ListFiles(tc.Log)
	if err != nil {
		return err
	}
	want := time.Now().Format(time.DateOnly) + "_log.txt"
	for _, f := range files {
		if f == want {
			return nil
		}
	}
	return fmt.Errorf("daily log %s not found in %v", want, files)
}

func (tc *TestContext) filesWereMoved(n int) error {
	if got := tc.report.Len(); got != n {
		return fmt.Errorf("expected %d moves, got %d: %v", n, got, tc.report.Moves)
	}
	return nil
}
