package index

import (
	"context"
	"log/slog"

	"github.com/starford/linkgraph/internal/parser"
	"github.com/starford/linkgraph/internal/storage"
)

// SyncStats counts what one Sync pass changed.
type SyncStats struct {
	Indexed   int
	Unchanged int
	Removed   int
	Failed    int
}

// Sync brings the index in line with the vault: documents whose checksum
// changed are parsed and upserted, documents gone from disk are deleted.
// Per-file failures are logged and counted, not returned.
func Sync(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger) (SyncStats, error) {
	var st SyncStats
	metas, err := store.List("")
	if err != nil {
		return st, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return st, err
	}

	onDisk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		onDisk[m.Path] = struct{}{}
		if checksums[m.Path] == m.Checksum {
			st.Unchanged++
			continue
		}
		data, err := store.Read(m.Path)
		if err == nil {
			err = indexFile(db, m.Path, data)
		}
		if err != nil {
			st.Failed++
			logger.Warn("index: sync failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		st.Indexed++
	}

	for p := range checksums {
		if _, ok := onDisk[p]; ok {
			continue
		}
		if err := db.DeleteDocument(p); err != nil {
			st.Failed++
			logger.Warn("index: remove stale failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		st.Removed++
	}

	logger.Info("index: sync",
		slog.Int("indexed", st.Indexed),
		slog.Int("unchanged", st.Unchanged),
		slog.Int("removed", st.Removed),
		slog.Int("failed", st.Failed))
	return st, nil
}

func indexFile(db *DB, path string, data []byte) error {
	raw := string(data)
	return db.UpsertDocument(parser.Parse(path, raw), storage.Checksum(data), parser.Body(raw))
}
