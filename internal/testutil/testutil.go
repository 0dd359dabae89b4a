// Package testutil provides shared test helpers for vaults, indexes and
// in-memory corpora.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/storage"
	"github.com/starford/linkgraph/internal/vault"
)

// TestDB creates a temporary SQLite index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "linkgraph-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory seeded with files
// (path → content).
func TestVault(t *testing.T, files map[string]string) (*vault.Vault, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	return vault.New(store), store
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

// ErrUnreadable is returned by MemCorpus for paths marked as failing.
var ErrUnreadable = errors.New("testutil: unreadable")

// MemCorpus is an in-memory document source. It is safe for concurrent use.
type MemCorpus struct {
	mu    sync.Mutex
	files map[string]string
	fail  map[string]bool
	reads int
}

// NewMemCorpus creates a corpus holding files (path → content).
func NewMemCorpus(files map[string]string) *MemCorpus {
	m := &MemCorpus{files: map[string]string{}, fail: map[string]bool{}}
	for p, c := range files {
		m.files[p] = c
	}
	return m
}

// Set adds or replaces a file.
func (m *MemCorpus) Set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// Remove deletes a file.
func (m *MemCorpus) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

// Fail makes reads of path return ErrUnreadable.
func (m *MemCorpus) Fail(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[path] = true
}

// Reads returns how many ReadText calls were made.
func (m *MemCorpus) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// ListNoteFiles returns every path, sorted.
func (m *MemCorpus) ListNoteFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	slices.Sort(out)
	return out, nil
}

// ReadText returns the content of path.
func (m *MemCorpus) ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.fail[path] {
		return "", ErrUnreadable
	}
	c, ok := m.files[path]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return c, nil
}
