package worksheet

import (
	"bytes"
	"encoding/csv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// delimited exposes a CSV upload as a single sheet.
type delimited struct {
	data []byte
}

func openCSV(data []byte) *delimited {
	return &delimited{data: data}
}

func (d *delimited) SheetNames() []string {
	return []string{CSVSheetName}
}

func (d *delimited) Close() error {
	return nil
}

// Cells decodes the buffer as UTF-8, honouring a UTF-8 or UTF-16 byte order
// mark, and splits it into records. Invalid UTF-8 becomes U+FFFD.
func (d *delimited) Cells(string) ([][]string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(transform.NewReader(bytes.NewReader(d.data), decoder))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}
