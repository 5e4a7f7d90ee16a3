package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDocumentID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"canonical id unchanged", "SS-F-PR-ST-047-81-1/3", "SS-F-PR-ST-047-81-1/3"},
		{"whitespace and hyphen runs", " SS - F-PR--ST-047-81-1/3-", "SS-F-PR-ST-047-81-1/3"},
		{"serial and zero misreads", "S5-F-PR-ST-D47-81-1/3", "SS-F-PR-ST-047-81-1/3"},
		{"lost slash in two digits", "SS-F-PR-ST-047-81-13", "SS-F-PR-ST-047-81-1/3"},
		{"bare page count", "SS-F-PR-ST-047-81-3", "SS-F-PR-ST-047-81-1/3"},
		{"missing page number", "SS-F-PR-ST-047-81-/3", "SS-F-PR-ST-047-81-1/3"},
		{"missing page count", "SS-F-PR-ST-047-81-1/", "SS-F-PR-ST-047-81-1/n"},
		{"two letter tail", "SS-F-PR-ST-047-81-AB", "SS-F-PR-ST-047-81-A/B"},
		{"single letter tail", "SS-F-PR-ST-047-81-X", "SS-F-PR-ST-047-81-1/X"},
		{"unrecognized tail", "SS-F-PR-ST-047-81-ABCD", ""},
		{"too short", "SS-F-1/3", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDocumentID(tt.in))
		})
	}
}
