package worksheet

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// workbook reads .xlsx containers through excelize.
type workbook struct {
	f        *excelize.File
	date1904 bool
	isDate   map[int]bool // style ID -> renders as a date
}

func openWorkbook(data []byte) (*workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	wb := &workbook{f: f, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb, nil
}

func (w *workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

func (w *workbook) Close() error {
	return w.f.Close()
}

// Cells returns the formatted text of every cell. Cells styled with a date
// number format are re-rendered from their serial value as yyyy-mm-dd.
func (w *workbook) Cells(sheet string) ([][]string, error) {
	formatted, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	for r, line := range formatted {
		if r >= len(raw) {
			break
		}
		for c := range line {
			if c >= len(raw[r]) || raw[r][c] == "" {
				continue
			}
			if v, ok := w.dateText(sheet, c+1, r+1, raw[r][c]); ok {
				line[c] = v
			}
		}
	}
	return formatted, nil
}

func (w *workbook) dateText(sheet string, col, row int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	styleID, err := w.f.GetCellStyle(sheet, cell)
	if err != nil || !w.dateStyle(styleID) {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, w.date1904)
	if err != nil {
		return "", false
	}
	return t.Format(DateLayout), true
}

func (w *workbook) dateStyle(styleID int) bool {
	if v, ok := w.isDate[styleID]; ok {
		return v
	}
	v := false
	if style, err := w.f.GetStyle(styleID); err == nil && style != nil {
		v = isDateFormat(style.NumFmt, style.CustomNumFmt)
	}
	w.isDate[styleID] = v
	return v
}

var (
	quotedSection  = regexp.MustCompile(`"[^"]*"`)
	bracketSection = regexp.MustCompile(`\[[^\]]*\]`)
	escapedChar    = regexp.MustCompile(`\\.`)
)

// isDateFormat reports whether a number format displays a calendar date.
// Time-only formats are not dates.
func isDateFormat(id int, custom *string) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	if custom == nil {
		return false
	}
	code := quotedSection.ReplaceAllString(*custom, "")
	code = bracketSection.ReplaceAllString(code, "")
	code = escapedChar.ReplaceAllString(code, "")
	code = strings.ToLower(code)
	return strings.ContainsAny(code, "yd")
}
