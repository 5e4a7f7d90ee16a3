package testutil

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/require"
)

// WriteImage encodes img as JPEG or PNG depending on the extension of path.
func WriteImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path) //nolint:gosec // G304: test path
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 85}))
	default:
		require.NoError(t, png.Encode(f, img))
	}
}

// WriteScanPDF writes a one-page PDF whose page is img, the way a scanner
// embeds its JPEG.
func WriteScanPDF(t *testing.T, path string, img image.Image) {
	t.Helper()
	scan := filepath.Join(t.TempDir(), "scan.jpg")
	WriteImage(t, scan, img)
	require.NoError(t, api.ImportImagesFile([]string{scan}, path, nil, nil))
}

// minimalPDF is a valid one-page PDF with no content.
const minimalPDF = `%PDF-1.4
1 0 obj
<<
/Type /Catalog
/Pages 2 0 R
>>
endobj

2 0 obj
<<
/Type /Pages
/Kids [3 0 R]
/Count 1
>>
endobj

3 0 obj
<<
/Type /Page
/Parent 2 0 R
/MediaBox [0 0 612 792]
>>
endobj

xref
0 4
0000000000 65535 f
0000000009 00000 n
0000000058 00000 n
0000000115 00000 n
trailer
<<
/Size 4
/Root 1 0 R
>>
startxref
186
%%EOF`

// WriteBlankPDF writes a valid one-page PDF without any image.
func WriteBlankPDF(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(minimalPDF), 0o600))
}

// WriteFile writes content to path, creating parent folders.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	MkdirAll(t, filepath.Dir(path))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
