package pipeline

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ocrheader/internal/acquire"
	"github.com/MeKo-Tech/ocrheader/internal/document"
	"github.com/MeKo-Tech/ocrheader/internal/events"
	"github.com/MeKo-Tech/ocrheader/internal/filing"
	"github.com/MeKo-Tech/ocrheader/internal/header"
	"github.com/MeKo-Tech/ocrheader/internal/region"
	"github.com/MeKo-Tech/ocrheader/internal/resultlog"
)

const itemName = "ST 1x5x0.38HI (MRE)-DF-RHA"

type classifierFunc func(ctx context.Context, page image.Image) header.Classification

func (f classifierFunc) Classify(ctx context.Context, page image.Image) header.Classification {
	return f(ctx, page)
}

type extractorFunc func(ctx context.Context, page image.Image) region.Analysis

func (f extractorFunc) Analyze(ctx context.Context, page image.Image) region.Analysis {
	return f(ctx, page)
}

type memSink struct {
	mu      sync.Mutex
	records []resultlog.Record
}

func (s *memSink) Append(rec resultlog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) Notify(e events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		if p, ok := e.(events.Progress); ok {
			out = append(out, p.Message)
		}
	}
	return out
}

func (l *eventLog) completed() []events.Completed {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []events.Completed
	for _, e := range l.events {
		if c, ok := e.(events.Completed); ok {
			out = append(out, c)
		}
	}
	return out
}

type fixture struct {
	roots   filing.Roots
	input   string
	sink    *memSink
	events  *eventLog
	scratch string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		roots: filing.Roots{
			Success: filepath.Join(base, "success"),
			Failed:  filepath.Join(base, "failed"),
			Backup:  filepath.Join(base, "backup"),
		},
		input:   filepath.Join(base, "data"),
		sink:    &memSink{},
		events:  &eventLog{},
		scratch: filepath.Join(base, "scratch"),
	}
	for _, dir := range []string{f.roots.Success, f.roots.Failed, f.roots.Backup, f.input, f.scratch} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return f
}

func (f *fixture) pdf(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.input, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+name), 0o644))
	return path
}

func (f *fixture) processor(r acquire.Rasterizer, c Classifier, e Extractor, opts Options) *Processor {
	return NewProcessor(Deps{
		Rasterizer: r,
		Classifier: c,
		Extractor:  e,
		Filer:      filing.NewEngine(f.roots, nil),
		Results:    f.sink,
		Events:     f.events,
	}, opts)
}

func pageRasterizer() acquire.Rasterizer {
	return acquire.RasterizerFunc(func(context.Context, string, int) (image.Image, error) {
		return image.NewGray(image.Rect(0, 0, 64, 32)), nil
	})
}

func oldPlain() Classifier {
	return classifierFunc(func(context.Context, image.Image) header.Classification {
		return header.Classification{Layout: document.OldPlain{}}
	})
}

func regions(texts ...string) Extractor {
	return extractorFunc(func(context.Context, image.Image) region.Analysis {
		var a region.Analysis
		for i, text := range texts {
			a.Regions = append(a.Regions, document.RegionText{Ordinal: i + 1, Text: text})
		}
		return a
	})
}

func mustNotExtract(t *testing.T) Extractor {
	return extractorFunc(func(context.Context, image.Image) region.Analysis {
		t.Error("new-format documents must not run the table pass")
		return region.Analysis{}
	})
}

func TestProcess_NewFormatSuccess(t *testing.T) {
	f := newFixture(t)
	src := f.pdf(t, "scan_001.pdf")
	cls := classifierFunc(func(context.Context, image.Image) header.Classification {
		return header.Classification{Layout: document.NewWithBarcode{BarcodeHeader: document.BarcodeHeader{
			Barcode:  "CI03000766001",
			ItemName: itemName,
			Date:     "05-Feb-25",
		}}}
	})

	out := f.processor(pageRasterizer(), cls, mustNotExtract(t), Options{ScratchDir: f.scratch}).
		Process(context.Background(), "run-1", src)

	require.NoError(t, out.Err)
	assert.Equal(t, document.StatusSuccess, out.Status)
	assert.Equal(t, document.FormatNewWithBarcode, out.Format)
	assert.Equal(t, "CI03000766001-05-Feb-25.pdf", out.Decision.FinalFilename)
	assert.FileExists(t, out.Decision.Path())
	assert.FileExists(t, filepath.Join(f.roots.Backup, "scan_001.pdf"))
	assert.NoFileExists(t, src)

	require.Len(t, f.sink.records, 1)
	assert.Equal(t, "Success", f.sink.records[0].Status)

	done := f.events.completed()
	require.Len(t, done, 1)
	assert.True(t, done[0].Success)
	assert.Equal(t, "run-1", done[0].RunID)

	msgs := f.events.messages()
	require.NotEmpty(t, msgs)
	assert.True(t, strings.HasSuffix(msgs[0], " - Processing: "+src))

	scratch, err := os.ReadDir(f.scratch)
	require.NoError(t, err)
	require.Len(t, scratch, 1)
	assert.True(t, strings.HasPrefix(scratch[0].Name(), "image_"))
	assert.Equal(t, ".jpg", filepath.Ext(scratch[0].Name()))
}

func TestProcess_OldFormatSuccessIsReorganized(t *testing.T) {
	f := newFixture(t)
	src := f.pdf(t, "scan_002.pdf")

	out := f.processor(pageRasterizer(), oldPlain(),
		regions("SS-F-PR-ST-047-81-1/3", "Date 19-Aug-24", itemName), Options{}).
		Process(context.Background(), "", src)

	require.NoError(t, out.Err)
	assert.Equal(t, document.StatusSuccess, out.Status)
	assert.Equal(t, "SS-F-PR-ST-047-81-1-3", out.Fields.DocumentID)
	assert.Equal(t, "19-Aug-24", out.Fields.Date)
	assert.FileExists(t, out.Decision.Path())
	assert.NotEqual(t, f.roots.Success, out.Decision.DestinationFolder, "old-format files are nested by model and date")

	require.Len(t, f.sink.records, 1)
	assert.Equal(t, itemName+"-SS-F-PR-ST-047-81-1-3-19-Aug-24.pdf", f.sink.records[0].NewFileName)
}

func TestProcess_OldWithBarcodeKeepsBarcode(t *testing.T) {
	f := newFixture(t)
	src := f.pdf(t, "scan_003.pdf")
	cls := classifierFunc(func(context.Context, image.Image) header.Classification {
		return header.Classification{Layout: document.OldWithBarcode{BarcodeHeader: document.BarcodeHeader{Barcode: "CX001"}}}
	})

	out := f.processor(pageRasterizer(), cls, regions("SS-F-PR-ST-047-81-1/3", itemName), Options{}).
		Process(context.Background(), "", src)

	assert.Equal(t, document.StatusSuccess, out.Status)
	assert.Equal(t, "CX001", out.Fields.Barcode)
	assert.Equal(t, "Cannot get date", out.Message)
}

func TestProcess_ValidationFailure(t *testing.T) {
	f := newFixture(t)
	src := f.pdf(t, "blank.pdf")

	out := f.processor(pageRasterizer(), oldPlain(), regions(), Options{}).
		Process(context.Background(), "", src)

	assert.Equal(t, document.StatusFailed, out.Status)
	assert.Equal(t, "Cannot get document ID; Cannot get date; Cannot get document header", out.Message)
	assert.FileExists(t, filepath.Join(f.roots.Failed, "blank.pdf"))

	require.Len(t, f.sink.records, 1)
	assert.Equal(t, "Failed", f.sink.records[0].Status)
	assert.Equal(t, out.Message, f.sink.records[0].ErrorMessage)
	assert.Equal(t, "--.pdf", f.sink.records[0].NewFileName, "parsed fields name the record even when empty")
	assert.False(t, f.events.completed()[0].Success)
}

func TestProcess_TimeoutRetriesThenFails(t *testing.T) {
	f := newFixture(t)
	src := f.pdf(t, "slow.pdf")
	var calls int
	var mu sync.Mutex
	slow := acquire.RasterizerFunc(func(ctx context.Context, _ string, _ int) (image.Image, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	})

	out := f.processor(slow, oldPlain(), regions(), Options{Timeout: 10 * time.Millisecond, MaxRetries: 2}).
		Process(context.Background(), "", src)

	assert.Equal(t, document.StatusFailed, out.Status)
	assert.Equal(t, "PDF to image conversion timed out after 2 attempts", out.Message)
	assert.FileExists(t, filepath.Join(f.roots.Failed, "slow.pdf"))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)

	msgs := strings.Join(f.events.messages(), "\n")
	assert.Contains(t, msgs, "Retry 1/2 for "+src)
	assert.Contains(t, msgs, "Retry 2/2 for "+src)
	assert.Contains(t, msgs, "Max retries reached for "+src+". Marking as failed.")
	assert.Contains(t, msgs, "Error processing "+src+": PDF to image conversion timed out after 2 attempts")

	require.Len(t, f.sink.records, 1)
	assert.Equal(t, resultlog.UnknownFileName, f.sink.records[0].NewFileName)
	assert.Empty(t, f.sink.records[0].ExtractedData)
}

func TestProcess_ConversionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"corrupted", acquire.ErrCorrupted, MessageCorrupted},
		{"trailer", errors.New("Couldn't find trailer dictionary"), MessageCorrupted},
		{"other", errors.New("renderer crashed"), MessageGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			src := f.pdf(t, "x.pdf")
			r := acquire.RasterizerFunc(func(context.Context, string, int) (image.Image, error) { return nil, tt.err })

			out := f.processor(r, oldPlain(), regions(), Options{}).Process(context.Background(), "", src)

			assert.Equal(t, document.StatusFailed, out.Status)
			assert.Equal(t, tt.want, out.Message)
			assert.FileExists(t, filepath.Join(f.roots.Failed, "x.pdf"))
			require.Len(t, f.sink.records, 1)
			assert.Equal(t, tt.want, f.sink.records[0].ErrorMessage)
			assert.Equal(t, resultlog.UnknownFileName, f.sink.records[0].NewFileName)
		})
	}
}

func TestProcess_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t)
	src := f.pdf(t, "later.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := f.processor(pageRasterizer(), oldPlain(), regions(), Options{}).Process(ctx, "", src)

	assert.True(t, out.Cancelled)
	assert.FileExists(t, src, "cancelled files stay in the input folder")
	assert.Empty(t, f.sink.records)
	assert.Empty(t, f.events.completed())
	assert.Equal(t, []string{"Task canceled for: " + src}, f.events.messages())
}

func TestPrepareScratch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "image")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.jpg"), []byte("x"), 0o644))

	require.NoError(t, PrepareScratch(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, filepath.Join(dir, "image_20250205_140309_042.jpg"), ScratchPath(dir, "20250205_140309_042"))
}

func TestMemoryUsedMB(t *testing.T) {
	assert.InDelta(t, 2.0, memoryUsedMB(memorySnapshot{HeapAlloc: 1 << 20}, memorySnapshot{HeapAlloc: 3 << 20}), 1e-9)
	assert.Negative(t, memoryUsedMB(memorySnapshot{HeapAlloc: 3 << 20}, memorySnapshot{HeapAlloc: 1 << 20}))
}
