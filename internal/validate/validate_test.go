package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MeKo-Tech/ocrheader/internal/document"
)

func TestValidate(t *testing.T) {
	complete := document.Fields{
		DocumentID: "SS-F-PR-ST-047-81-1/3",
		Date:       "19/Aug/24",
		ItemName:   "ST 1x4x0.22SHT (J04)-CI-RHA",
	}

	tests := []struct {
		name    string
		fields  document.Fields
		format  document.Format
		status  document.Status
		reasons []string
	}{
		{"complete old document", complete, document.FormatOldPlain, document.StatusSuccess, nil},
		{"missing id fails old format", document.Fields{Date: "19/Aug/24", ItemName: "X"}, document.FormatOldWithBarcode, document.StatusFailed, []string{ReasonNoDocumentID}},
		{"short id fails old format", document.Fields{DocumentID: "SS-F-1/3", Date: "19/Aug/24", ItemName: "X"}, document.FormatOldPlain, document.StatusFailed, []string{ReasonNoDocumentID}},
		{"missing id is fine for new format", document.Fields{Date: "05-Feb-25", ItemName: "CI03000766001"}, document.FormatNewWithBarcode, document.StatusSuccess, nil},
		{"missing date is a soft reason", document.Fields{DocumentID: complete.DocumentID, ItemName: "X"}, document.FormatOldPlain, document.StatusSuccess, []string{ReasonNoDate}},
		{"missing header fails", document.Fields{DocumentID: complete.DocumentID, Date: "19/Aug/24"}, document.FormatOldPlain, document.StatusFailed, []string{ReasonNoHeader}},
		{"nothing found", document.Fields{}, document.FormatOldPlain, document.StatusFailed, []string{ReasonNoDocumentID, ReasonNoDate, ReasonNoHeader}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.fields, tt.format)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.reasons, res.Reasons)
		})
	}
}

func TestValidate_SanitizesPresentFields(t *testing.T) {
	res := Validate(document.Fields{
		DocumentID: "SS-F-PR-ST-047-81-1/3",
		Date:       "19/Aug/24",
		ItemName:   " ST 1x4x0.22SHT (J04)-CI-RHA ",
	}, document.FormatOldPlain)

	assert.Equal(t, "SS-F-PR-ST-047-81-1-3", res.Fields.DocumentID)
	assert.Equal(t, "19-Aug-24", res.Fields.Date)
	assert.Equal(t, "ST 1x4x0.22SHT (J04)-CI-RHA", res.Fields.ItemName)
	assert.Empty(t, res.Message())
}

func TestApply(t *testing.T) {
	rec := document.NewRecord("/in/a.pdf")
	Apply(rec, Validate(document.Fields{}, document.FormatOldPlain))

	assert.Equal(t, document.StatusFailed, rec.Status)
	assert.Equal(t, "Cannot get document ID; Cannot get date; Cannot get document header", rec.Message())
}
