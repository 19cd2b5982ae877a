// Package export writes records as individual JSON files.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxNameBytes bounds the stem so the name with suffix and extension stays
// under common filesystem limits.
const maxNameBytes = 200

// Named is a record whose files are named after one of its fields.
type Named interface {
	FieldValue(key string) (string, bool)
}

// RecordWriteError describes one record that could not be written.
type RecordWriteError struct {
	Index int // 1-based
	Path  string
	Err   error
}

func (e *RecordWriteError) Error() string {
	return fmt.Sprintf("write record %d to %s: %v", e.Index, e.Path, e.Err)
}

func (e *RecordWriteError) Unwrap() error {
	return e.Err
}

// Result summarizes a Write call.
type Result struct {
	Dir     string
	Files   []string // paths written, in record order
	Skipped int
	Errors  []*RecordWriteError
}

// Written returns the number of files written.
func (r *Result) Written() int {
	return len(r.Files)
}

// Err joins the per-record failures, or returns nil.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Writer emits one JSON file per record.
type Writer struct {
	logger *slog.Logger
}

// NewWriter returns a Writer that logs skipped records to logger.
// A nil logger uses slog.Default().
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Write creates dir and writes each record to <name>.json inside it, named
// by nameKey. A record that fails to encode or write is logged and counted
// in Result.Skipped; the remaining records are still written. Only a
// failure to create dir is returned as an error.
func Write[T Named](w *Writer, records []T, nameKey, dir string) (*Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	res := &Result{Dir: dir, Files: make([]string, 0, len(records))}

	for i, rec := range records {
		pos := i + 1
		name := FileName(rec, nameKey, pos)
		path := filepath.Join(dir, name+".json")

		if err := writeJSON(path, rec); err != nil {
			werr := &RecordWriteError{Index: pos, Path: path, Err: err}
			w.logger.Warn("record skipped", "index", pos, "path", path, "error", err)
			res.Errors = append(res.Errors, werr)
			res.Skipped++
			continue
		}
		res.Files = append(res.Files, path)
	}

	return res, nil
}

// FileName returns the sanitized file stem for the record at 1-based
// position pos: "<value>_<pos>" or "object_<pos>" when the field is empty.
func FileName(rec Named, nameKey string, pos int) string {
	value, ok := rec.FieldValue(nameKey)
	if !ok || strings.TrimSpace(value) == "" {
		return "object_" + strconv.Itoa(pos)
	}
	return Sanitize(truncate(value, maxNameBytes)) + "_" + strconv.Itoa(pos)
}

var unsafeChars = strings.NewReplacer(
	"/", "_", "\\", "_", "?", "_", "%", "_", "*", "_",
	":", "_", "|", "_", "\"", "_", "<", "_", ">", "_",
)

// Sanitize replaces characters that are illegal in file names on common
// filesystems, and control characters, with "_".
func Sanitize(name string) string {
	name = unsafeChars.Replace(name)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, name)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
