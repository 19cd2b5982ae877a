package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestAcquire_Isolated(t *testing.T) {
	p := newProvider(t)

	const n = 20
	var wg sync.WaitGroup
	dirs := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := p.Acquire()
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			dirs <- ws.Dir
		}()
	}
	wg.Wait()
	close(dirs)

	seen := make(map[string]bool)
	for d := range dirs {
		if seen[d] {
			t.Errorf("workspace %s handed out twice", d)
		}
		seen[d] = true
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("workspace %s not created: %v", d, err)
		}
	}
	if p.Active() != n {
		t.Errorf("Active() = %d, want %d", p.Active(), n)
	}
}

func TestRelease_KeepArchives(t *testing.T) {
	p := newProvider(t)
	ws, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	records := ws.Path("outputAgents_01-02-2025")
	if err := os.MkdirAll(records, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	os.WriteFile(filepath.Join(records, "a_1.json"), []byte("{}"), 0o644)
	os.WriteFile(ws.Path("outputAgents_01-02-2025.zip"), []byte("zip"), 0o644)

	if err := ws.Release(true); err != nil {
		t.Fatalf("Release(true) error = %v", err)
	}
	if _, err := os.Stat(records); !os.IsNotExist(err) {
		t.Errorf("record dir should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(ws.Path("outputAgents_01-02-2025.zip")); err != nil {
		t.Errorf("archive should be kept: %v", err)
	}
	if p.Active() != 0 {
		t.Errorf("Active() = %d, want 0", p.Active())
	}

	// Second release is a no-op.
	if err := ws.Release(false); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
	if _, err := os.Stat(ws.Dir); err != nil {
		t.Errorf("second Release should not remove workspace: %v", err)
	}
}

func TestRelease_Discard(t *testing.T) {
	p := newProvider(t)
	ws, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	os.WriteFile(ws.Path("x.zip"), []byte("zip"), 0o644)

	if err := ws.Release(false); err != nil {
		t.Fatalf("Release(false) error = %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Errorf("workspace should be removed, stat err = %v", err)
	}
}

func TestResolve(t *testing.T) {
	p := newProvider(t)
	ws, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	os.WriteFile(ws.Path("outputAgents_01-02-2025.zip"), []byte("zip"), 0o644)
	os.Mkdir(ws.Path("dir.zip"), 0o755)
	ws.Release(true)

	tests := []struct {
		name    string
		runID   string
		file    string
		wantErr error
	}{
		{"ok", ws.ID, "outputAgents_01-02-2025.zip", nil},
		{"missing file", ws.ID, "other.zip", ErrNotFound},
		{"directory", ws.ID, "dir.zip", ErrNotFound},
		{"unknown run", "00000000-0000-0000-0000-000000000000", "outputAgents_01-02-2025.zip", ErrNotFound},
		{"bad run id", "..", "outputAgents_01-02-2025.zip", ErrInvalidName},
		{"traversal", ws.ID, "../x.zip", ErrInvalidName},
		{"not zip", ws.ID, "secret.txt", ErrInvalidName},
		{"bare extension", ws.ID, ".zip", ErrInvalidName},
		{"space", ws.ID, "a b.zip", ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := p.Resolve(tt.runID, tt.file)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && path != ws.Path(tt.file) {
				t.Errorf("Resolve() = %q, want %q", path, ws.Path(tt.file))
			}
		})
	}
}

func TestPurge(t *testing.T) {
	p := newProvider(t)

	old, _ := p.Acquire()
	old.Release(true)
	fresh, _ := p.Acquire()
	fresh.Release(true)
	running, _ := p.Acquire()

	past := time.Now().Add(-48 * time.Hour)
	os.Chtimes(old.Dir, past, past)
	os.Chtimes(running.Dir, past, past)

	// Non-run entries are never touched.
	stray := filepath.Join(p.Root(), "keep-me")
	os.Mkdir(stray, 0o755)
	os.Chtimes(stray, past, past)

	removed, err := p.Purge(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Purge() removed %d, want 1", removed)
	}

	checks := []struct {
		dir    string
		exists bool
	}{
		{old.Dir, false},
		{fresh.Dir, true},
		{running.Dir, true},
		{stray, true},
	}
	for _, c := range checks {
		_, err := os.Stat(c.dir)
		if exists := err == nil; exists != c.exists {
			t.Errorf("%s exists = %v, want %v", filepath.Base(c.dir), exists, c.exists)
		}
	}
}

func TestValidArchiveName(t *testing.T) {
	tests := map[string]bool{
		"outputAgents_10-18-2026.zip": true,
		"a.b-c_d.zip":                 true,
		"../a.zip":                    false,
		"a/b.zip":                     false,
		"a.zip.txt":                   false,
		"":                            false,
		".zip":                        false,
	}
	for name, want := range tests {
		if got := ValidArchiveName(name); got != want {
			t.Errorf("ValidArchiveName(%q) = %v, want %v", name, got, want)
		}
	}
}
