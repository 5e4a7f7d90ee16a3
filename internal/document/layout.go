package document

// Layout is the classifier's verdict. Exactly one of OldPlain,
// OldWithBarcode or NewWithBarcode.
type Layout interface {
	Format() Format
	// Header returns the fields read from the highlighted header block.
	Header() Fields
	sealed()
}

// OldPlain has no highlight block; fields come from the ruled table.
type OldPlain struct{}

func (OldPlain) Format() Format { return FormatOldPlain }
func (OldPlain) Header() Fields { return Fields{} }
func (OldPlain) sealed()        {}

// BarcodeHeader carries the values read from a highlight block.
type BarcodeHeader struct {
	Barcode  string
	ItemName string
	Date     string
	Machine  string
	Supply   string
}

func (h BarcodeHeader) fields(version string) Fields {
	return Fields{
		Barcode:  h.Barcode,
		ItemName: h.ItemName,
		Date:     h.Date,
		Machine:  h.Machine,
		Supply:   h.Supply,
		Version:  version,
	}
}

// OldWithBarcode has a highlight block whose barcode is ten characters or
// fewer. Downstream it is treated like OldPlain.
type OldWithBarcode struct {
	BarcodeHeader
}

func (OldWithBarcode) Format() Format   { return FormatOldWithBarcode }
func (l OldWithBarcode) Header() Fields { return l.fields("") }
func (OldWithBarcode) sealed()          {}

// NewWithBarcode has a highlight block and a long barcode. Its header fields
// are used as-is.
type NewWithBarcode struct {
	BarcodeHeader
}

func (NewWithBarcode) Format() Format   { return FormatNewWithBarcode }
func (l NewWithBarcode) Header() Fields { return l.fields(VersionNew) }
func (NewWithBarcode) sealed()          {}

// LayoutFor builds the layout variant for a classifier outcome.
func LayoutFor(highlight bool, f Fields) Layout {
	if !highlight {
		return OldPlain{}
	}
	h := BarcodeHeader{
		Barcode:  f.Barcode,
		ItemName: f.ItemName,
		Date:     f.Date,
		Machine:  f.Machine,
		Supply:   f.Supply,
	}
	if f.Version == VersionNew {
		return NewWithBarcode{h}
	}
	return OldWithBarcode{h}
}
