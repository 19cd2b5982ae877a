// Package archive bundles a directory of record files into a zip.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"
)

// PackagingError is returned when an archive cannot be produced.
type PackagingError struct {
	Dir  string
	Dest string
	Err  error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("package %s into %s: %v", e.Dir, e.Dest, e.Err)
}

func (e *PackagingError) Unwrap() error {
	return e.Err
}

// Archive describes a written zip file.
type Archive struct {
	Path  string
	Files int
	Size  int64
}

// PackDir writes every regular file directly inside dir to a zip at dest.
// Subdirectories are not descended into. Entries are stored flat, sorted by
// name. The zip is written to a temporary file and renamed into place, so
// dest never holds a partial archive.
func PackDir(dir, dest string) (*Archive, error) {
	a, err := packDir(dir, dest)
	if err != nil {
		return nil, &PackagingError{Dir: dir, Dest: dest, Err: err}
	}
	return a, nil
}

func packDir(dir, dest string) (*Archive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".pack-*.zip")
	if err != nil {
		return nil, err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	files := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := addFile(zw, filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
		files++
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		return nil, err
	}
	info, err := tmp.Stat()
	if err != nil {
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return nil, err
	}
	committed = true

	return &Archive{Path: dest, Files: files, Size: info.Size()}, nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("add %s: %w", hdr.Name, err)
	}
	return nil
}
