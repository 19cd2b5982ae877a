// Package workspace hands out one private directory per conversion run.
//
// Each run gets <root>/<run id>. Intermediate record folders live inside it
// and are removed on Release; the archives stay until Purge removes runs
// older than the retention period.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by Resolve for unknown runs or files.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName is returned by Resolve for unsafe run IDs or file names.
	ErrInvalidName = errors.New("invalid file name")
)

var archiveName = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+\.zip$`)

// ValidArchiveName reports whether name is a plain zip file name that is
// safe to join onto a workspace path.
func ValidArchiveName(name string) bool {
	return archiveName.MatchString(name) && name != ".zip" && filepath.Base(name) == name
}

// Provider allocates run workspaces under a root directory.
type Provider struct {
	root string

	mu     sync.Mutex
	active map[string]struct{}
}

// NewProvider creates root if needed.
func NewProvider(root string) (*Provider, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	return &Provider{root: root, active: make(map[string]struct{})}, nil
}

// Root returns the directory workspaces are created in.
func (p *Provider) Root() string {
	return p.root
}

// Workspace is a directory exclusively owned by one run until Release.
type Workspace struct {
	ID  string
	Dir string

	provider *Provider
	once     sync.Once
	err      error
}

// Acquire creates a new, empty workspace.
func (p *Provider) Acquire() (*Workspace, error) {
	for attempt := 0; attempt < 3; attempt++ {
		id := uuid.NewString()
		dir := filepath.Join(p.root, id)

		err := os.Mkdir(dir, 0o755)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}

		p.mu.Lock()
		p.active[id] = struct{}{}
		p.mu.Unlock()

		return &Workspace{ID: id, Dir: dir, provider: p}, nil
	}
	return nil, errors.New("create workspace: id collision")
}

// Path joins elem onto the workspace directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Release ends the run's ownership. With keepArchives, subdirectories are
// removed and top-level files are kept for download; otherwise the whole
// workspace is removed. Calling Release again is a no-op.
func (w *Workspace) Release(keepArchives bool) error {
	w.once.Do(func() {
		defer w.provider.deactivate(w.ID)

		if !keepArchives {
			w.err = os.RemoveAll(w.Dir)
			return
		}

		entries, err := os.ReadDir(w.Dir)
		if err != nil {
			w.err = err
			return
		}
		var errs []error
		for _, e := range entries {
			if e.IsDir() {
				errs = append(errs, os.RemoveAll(w.Path(e.Name())))
			}
		}
		w.err = errors.Join(errs...)
	})
	return w.err
}

func (p *Provider) deactivate(id string) {
	p.mu.Lock()
	delete(p.active, id)
	p.mu.Unlock()
}

func (p *Provider) isActive(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[id]
	return ok
}

// Active returns the number of unreleased workspaces.
func (p *Provider) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// Resolve returns the path of an archive in a finished run.
func (p *Provider) Resolve(runID, name string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", ErrInvalidName
	}
	if !ValidArchiveName(name) {
		return "", ErrInvalidName
	}

	path := filepath.Join(p.root, runID, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return path, nil
}

// Purge removes released workspaces last modified before cutoff and
// returns how many were removed. Entries that are not run directories are
// left alone.
func (p *Provider) Purge(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return 0, fmt.Errorf("list workspaces: %w", err)
	}

	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		if p.isActive(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(p.root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
