package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/linkgraph/internal/storage"
)

// watcherTestEnv sets up a vault dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store, testDB(t)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
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

type changeLog struct {
	mu      sync.Mutex
	batches [][]Change
}

func (c *changeLog) record(changes []Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, append([]Change(nil), changes...))
}

func (c *changeLog) has(kind, path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.batches {
		for _, ch := range b {
			if ch.Kind == kind && ch.Path == path {
				return true
			}
		}
	}
	return false
}

func (c *changeLog) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var log changeLog
	go Watch(ctx, db, store, quietLogger(), 50*time.Millisecond, log.record)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.md")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return log.has(ChangeCreated, "new.md")
	}, "expected created:new.md callback")
}

func TestWatcher_BurstDebounced(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var log changeLog
	go Watch(ctx, db, store, quietLogger(), 300*time.Millisecond, log.record)
	time.Sleep(100 * time.Millisecond)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		_ = os.WriteFile(filepath.Join(vaultDir, name), []byte("[[x]]"), 0o644)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has(ChangeCreated, "c.md")
	}, "burst not delivered")
	if !log.has(ChangeCreated, "a.md") {
		t.Error("a.md missing from batch")
	}
	if n := log.count(); n != 1 {
		t.Errorf("batches = %d, want one debounced batch", n)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, quietLogger(), 0, nil)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(vaultDir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("subdir/deep.md")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(vaultDir, "del.md"), []byte("# Delete Me"), 0o644)
	if _, err := Sync(context.Background(), db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("del.md"); cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var log changeLog
	go Watch(ctx, db, store, logger, 50*time.Millisecond, log.record)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(vaultDir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.md")
		return cs == "" && log.has(ChangeDeleted, "del.md")
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(vaultDir, "old.md"), []byte("# Rename"), 0o644)
	_, _ = Sync(context.Background(), db, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, logger, 0, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(vaultDir, "old.md"), filepath.Join(vaultDir, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.md")
		newCS, _ := db.GetChecksum("renamed.md")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestSync_RemovesStale(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(vaultDir, "keep.md"), []byte("---\ntitle: Keep\n---\n[[Other]]\n"), 0o644)
	_ = db.UpsertDocument(doc("stale.md", "Stale"), "s", "")

	st, err := Sync(context.Background(), db, store, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if st.Indexed != 1 || st.Removed != 1 {
		t.Errorf("stats = %+v", st)
	}
	all, _ := db.AllChecksums()
	if _, ok := all["stale.md"]; ok {
		t.Error("stale entry not removed")
	}
	if all["keep.md"] != storage.Checksum([]byte("---\ntitle: Keep\n---\n[[Other]]\n")) {
		t.Errorf("checksums = %v", all)
	}
	bl, _ := db.Backlinks("Other")
	if len(bl) != 1 || bl[0].SourceTitle != "Keep" {
		t.Errorf("backlinks = %+v", bl)
	}

	// A second pass finds nothing to do.
	if st, _ := Sync(context.Background(), db, store, logger); st.Indexed != 0 || st.Unchanged != 1 {
		t.Errorf("second pass stats = %+v", st)
	}
}

func TestSync_Cancelled(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(vaultDir, "a.md"), []byte("a"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Sync(ctx, db, store, quietLogger()); err == nil {
		t.Error("expected cancellation error")
	}
}
