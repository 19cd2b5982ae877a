package worksheet

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/extrame/xls"
)

// errNoWorkbookStream is returned for OLE containers without a Workbook or
// Book stream, such as Word documents.
var errNoWorkbookStream = errors.New("no workbook stream in container")

// formulaText is what extrame/xls reports for formula cells, whose cached
// result it does not decode.
const formulaText = "FormulaCol"

// biffWorkbook reads legacy .xls (BIFF8) containers through extrame/xls.
// Every sheet is parsed when the workbook is opened.
type biffWorkbook struct {
	names  []string
	sheets map[string]*xls.WorkSheet
}

func openBIFF(data []byte) (b *biffWorkbook, err error) {
	// The reader panics on some malformed record streams.
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("open workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("open workbook: %w", errNoWorkbookStream)
	}

	b = &biffWorkbook{sheets: make(map[string]*xls.WorkSheet, wb.NumSheets())}
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s == nil {
			continue
		}
		if _, dup := b.sheets[s.Name]; dup {
			continue
		}
		b.names = append(b.names, s.Name)
		b.sheets[s.Name] = s
	}
	return b, nil
}

func (b *biffWorkbook) SheetNames() []string {
	return b.names
}

func (b *biffWorkbook) Close() error {
	return nil
}

// Cells returns the text of every row from the first to the last one the
// sheet records. Rows without a ROW record come back empty.
func (b *biffWorkbook) Cells(sheet string) (cells [][]string, err error) {
	s, ok := b.sheets[sheet]
	if !ok {
		return nil, &SheetNotFoundError{Name: sheet, Available: b.names}
	}

	defer func() {
		if r := recover(); r != nil {
			cells, err = nil, fmt.Errorf("decode xls cells: %v", r)
		}
	}()

	last := -1
	for i := 0; i <= int(s.MaxRow); i++ {
		row := sheetRow(s, i)
		if row == nil || row.LastCol() <= row.FirstCol() {
			cells = append(cells, nil)
			continue
		}
		line := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			line[c] = biffCellText(row.Col(c))
		}
		cells = append(cells, line)
		last = i
	}
	return cells[:last+1], nil
}

// sheetRow returns row i, or nil when the sheet holds nothing for it.
// WorkSheet.Row dereferences absent rows.
func sheetRow(s *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return s.Row(i)
}

// biffCellText renders custom date formats, which extrame/xls reports as
// RFC 3339 timestamps, with DateLayout. Formula cells read as empty.
func biffCellText(v string) string {
	if v == formulaText {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(DateLayout)
	}
	return v
}
