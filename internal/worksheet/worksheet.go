// Package worksheet turns an uploaded spreadsheet buffer into header-keyed rows.
//
// Workbooks (.xlsx) are read with excelize and legacy .xls workbooks with
// extrame/xls; anything that is neither a zip nor an OLE container is treated
// as a single-sheet CSV named "Sheet1". Every cell is returned as text and
// date-formatted cells are rendered as yyyy-mm-dd. In .xls files only custom
// date formats keep the day; built-in ones come back as yyyy.mm.
package worksheet

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CSVSheetName is the sheet name a CSV upload is exposed under.
const CSVSheetName = "Sheet1"

// DateLayout is the layout date cells are rendered with.
const DateLayout = "2006-01-02"

// Row maps a header to its cell value. Every header of the sheet is present
// as a key; a nil value is an empty cell.
type Row map[string]*string

// Value returns the cell text for key and whether the cell is non-empty.
func (r Row) Value(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Has reports whether the sheet the row came from has a key column.
func (r Row) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Sheet is one worksheet read from a workbook.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Format identifies the container an upload was sniffed as.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Detect sniffs the container format from the leading bytes of data.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	default:
		return FormatCSV
	}
}

// SheetNotFoundError is returned when the requested worksheet does not exist.
type SheetNotFoundError struct {
	Name      string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found in workbook", e.Name)
}

// ErrEmptyFile is returned when the upload contains no bytes.
var ErrEmptyFile = errors.New("spreadsheet is empty")

// source abstracts over the readable containers.
type source interface {
	SheetNames() []string
	Cells(sheet string) ([][]string, error)
	Close() error
}

func open(data []byte) (source, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	switch Detect(data) {
	case FormatXLSX:
		wb, err := openWorkbook(data)
		if err != nil {
			return nil, err
		}
		return wb, nil
	case FormatXLS:
		wb, err := openBIFF(data)
		if err != nil {
			return nil, err
		}
		return wb, nil
	default:
		return openCSV(data), nil
	}
}

// SheetNames lists the worksheets of data in workbook order.
func SheetNames(data []byte) ([]string, error) {
	src, err := open(data)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.SheetNames(), nil
}

// Read returns the rows of the worksheet named sheetName. The name must match
// exactly; a missing sheet yields *SheetNotFoundError.
func Read(data []byte, sheetName string) (*Sheet, error) {
	src, err := open(data)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	names := src.SheetNames()
	for _, n := range names {
		if n == sheetName {
			return readSheet(src, n)
		}
	}
	return nil, &SheetNotFoundError{Name: sheetName, Available: names}
}

// ReadIndex returns the rows of the worksheet at the 0-based position index.
// When the workbook has fewer sheets, the last sheet is used.
func ReadIndex(data []byte, index int) (*Sheet, error) {
	src, err := open(data)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	names := src.SheetNames()
	if len(names) == 0 || index < 0 {
		return nil, &SheetNotFoundError{Name: "#" + strconv.Itoa(index), Available: names}
	}
	if index >= len(names) {
		index = len(names) - 1
	}
	return readSheet(src, names[index])
}

func readSheet(src source, name string) (*Sheet, error) {
	cells, err := src.Cells(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return build(name, cells), nil
}

// build keys every line below the first by the first line's headers.
// Lines with no populated cell are dropped.
func build(name string, cells [][]string) *Sheet {
	sheet := &Sheet{Name: name}
	if len(cells) == 0 {
		return sheet
	}

	sheet.Headers = headerKeys(cells[0])
	for _, line := range cells[1:] {
		row := make(Row, len(sheet.Headers))
		populated := false
		for i, key := range sheet.Headers {
			if i >= len(line) || line[i] == "" {
				row[key] = nil
				continue
			}
			v := line[i]
			row[key] = &v
			populated = true
		}
		if populated {
			sheet.Rows = append(sheet.Rows, row)
		}
	}
	return sheet
}

// headerKeys names blank headers __EMPTY, __EMPTY_1, ... and suffixes
// repeated headers with _1, _2, ... so every key is unique.
func headerKeys(raw []string) []string {
	keys := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int)
	for i, h := range raw {
		base := strings.TrimSpace(h)
		if base == "" {
			base = "__EMPTY"
		}
		key := base
		for used[key] {
			suffix[base]++
			key = base + "_" + strconv.Itoa(suffix[base])
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}
