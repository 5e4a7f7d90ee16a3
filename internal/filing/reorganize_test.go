package filing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

const (
	modelRHA = "ST 1x4x0.22SHT (J04)-CI-RHA"
	modelCX  = "ST 2x2x0.10HT (J12)-CX"
)

func TestReorganize_CanonicalNames(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, modelRHA+"-SS-F-PR-ST-047-81-1-3-19-Aug-24.pdf"))
	touch(t, filepath.Join(root, modelCX+"-S-F-QC-001-1-1-4-Mar-25.pdf"))
	touch(t, filepath.Join(root, modelRHA+"-S5-F-PR-ST-047-82-1-1-45-Aug-24_2.pdf"))
	touch(t, filepath.Join(root, modelRHA+"-SS-F-PR-ST-047-83-1-1.pdf"))

	report, err := Reorganize(root, Hint{Type: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Len())

	assert.Equal(t, []string{
		modelRHA + "/15-Aug-24/" + modelRHA + "-SS-F-PR-ST-047-82-1-1-15-Aug-24_2.pdf",
		modelRHA + "/19-Aug-24/" + modelRHA + "-SS-F-PR-ST-047-81-1-3-19-Aug-24.pdf",
		modelRHA + "/No Date/" + modelRHA + "-SS-F-PR-ST-047-83-1-1.pdf",
		modelCX + "/04-Mar-25/" + modelCX + "-SS-F-QC-001-1-1-04-Mar-25.pdf",
	}, tree(t, root))
	for _, m := range report.Moves {
		assert.Equal(t, 1, m.Pass)
	}
}

func TestReorganize_NormalizesWhitespaceInNames(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "ST  1x4x0.22SHT ( J04 )-CI-RHA-SS-F-PR-ST-047-81-1-3-19-Aug-24.pdf"))

	_, err := Reorganize(root, Hint{Type: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{
		modelRHA + "/19-Aug-24/" + modelRHA + "-SS-F-PR-ST-047-81-1-3-19-Aug-24.pdf",
	}, tree(t, root))
}

func TestReorganize_VersionsOnCollision(t *testing.T) {
	root := t.TempDir()
	name := modelRHA + "-SS-F-PR-ST-047-81-1-3-19-Aug-24.pdf"
	touch(t, filepath.Join(root, modelRHA, "19-Aug-24", name))
	touch(t, filepath.Join(root, modelRHA, "19-Aug-24", modelRHA+"-SS-F-PR-ST-047-81-1-3-19-Aug-24_1.pdf"))
	touch(t, filepath.Join(root, name))

	report, err := Reorganize(root, Hint{Type: 1})
	require.NoError(t, err)
	require.Equal(t, 1, report.Len())
	assert.Equal(t, filepath.Join(root, modelRHA, "19-Aug-24", modelRHA+"-SS-F-PR-ST-047-81-1-3-19-Aug-24_2.pdf"), report.Moves[0].To)
}

func TestReorganize_FuzzyFolderMatch(t *testing.T) {
	root := t.TempDir()
	folder := "ST 1x2x0.295HT (J12)-CX-RHA"
	require.NoError(t, os.MkdirAll(filepath.Join(root, folder), 0o755))
	touch(t, filepath.Join(root, "ST 1x2x0.295HT (J12)-CX-RH-SS-F-1-1-01-Jan-25.pdf"))

	report, err := Reorganize(root, Hint{Type: 1})
	require.NoError(t, err)
	require.Equal(t, 1, report.Len())
	assert.Equal(t, 2, report.Moves[0].Pass)
	assert.Equal(t, []string{
		folder + "/01-Jan-25/ST 1x2x0.295HT (J12)-CX-RH-SS-F-1-1-01-Jan-25.pdf",
	}, tree(t, root))
}

func TestReorganize_NewFormatHint(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "CI03000766001-05-Feb-25.pdf"))

	hint := HintFor(document.Fields{
		Barcode:  "CI03000766001",
		ItemName: modelRHA,
		Date:     "05-Feb-25",
		Version:  document.VersionNew,
	}, document.FormatNewWithBarcode)

	report, err := Reorganize(root, hint)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Len())
	assert.Equal(t, []string{modelRHA + "/05-Feb-25/CI03000766001-05-Feb-25.pdf"}, tree(t, root))
}

func TestReorganize_UnmatchedFilesGoToError(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "random scan.pdf"))
	touch(t, filepath.Join(root, "bad model-SS-F-1-1-01-Jan-25.pdf"))

	report, err := Reorganize(root, Hint{Type: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Len())
	assert.Equal(t, []string{
		"Error/bad model-SS-F-1-1-01-Jan-25.pdf",
		"Error/random scan.pdf",
	}, tree(t, root))
}

func TestReorganize_IsIdempotent(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, modelRHA+"-SS-F-PR-ST-047-81-1-3-19-Aug-24.pdf"))
	touch(t, filepath.Join(root, "random scan.pdf"))

	first, err := Reorganize(root, Hint{Type: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Len())
	before := tree(t, root)

	second, err := Reorganize(root, Hint{Type: 1})
	require.NoError(t, err)
	assert.Zero(t, second.Len())
	assert.Equal(t, before, tree(t, root))
}

func TestReorganize_MissingRoot(t *testing.T) {
	_, err := Reorganize(filepath.Join(t.TempDir(), "absent"), Hint{})
	assert.Error(t, err)
}

func TestModelNameHelpers(t *testing.T) {
	assert.Equal(t, modelRHA, extractModelName(modelRHA+"-SS-F-PR-ST-047-81-1-3.pdf"))
	assert.Equal(t, "ST 1x4 (J04)-CI-RHA", extractModelName("ST 1x4 ( J04 )-CI-RHA-S3-F.pdf"))
	assert.True(t, isValidModelName(modelRHA))
	assert.True(t, isValidModelName(modelCX))
	assert.False(t, isValidModelName("bad model"))

	assert.Equal(t, "SS-F-1", normalizeSerial("S-F-1"))
	assert.Equal(t, "SS-F-1", normalizeSerial("S3-F-1"))
	assert.Equal(t, "SS-F-1", normalizeSerial("5S-F-1"))
	assert.Equal(t, "SS-F-1", normalizeSerial("SS-F-1"))
	assert.Equal(t, "SSX-1", normalizeSerial("SSX-1"))

	assert.Equal(t, "19-Aug-24", correctDate("19-Aug-24"))
	assert.Equal(t, "15-Aug-24", correctDate("45-Aug-24"))
	assert.Equal(t, "09-Aug-24", correctDate("9-Aug-24"))
	assert.Equal(t, NoDateFolder, correctDate("32-Aug-24"))
	assert.Equal(t, NoDateFolder, correctDate(""))
}

func TestClosestMatch(t *testing.T) {
	folders := []string{"ST 1x2x0.295HT (J12)-CX", "ST 1x2x0.295HT (J12)-CX-RHA", "unrelated"}
	assert.Equal(t, "ST 1x2x0.295HT (J12)-CX-RHA", closestMatch("ST 1x2x0.295HT (J12)-CX-RH", folders, folderMatchCutoff))
	assert.Equal(t, "", closestMatch("something else", folders, folderMatchCutoff))
	assert.Equal(t, "abcdz", closestMatch("abcdx", []string{"abcdy", "abcdz"}, 0.5))
}
