package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/linkgraph/internal/models"
	"github.com/starford/linkgraph/internal/parser"
)

// load lists the corpus and reads every file with bounded concurrency. A file
// that cannot be read is logged and skipped; only a listing failure or
// cancellation fails the whole load.
func (e *Engine) load(ctx context.Context) (map[string]*models.Document, error) {
	paths, err := e.source.ListNoteFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: list corpus: %w", err)
	}

	parsed := make([]*models.Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ReadConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			raw, err := e.source.ReadText(gctx, p)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("engine: read failed",
					slog.String("path", p),
					slog.String("error", err.Error()))
				return nil
			}
			parsed[i] = parser.Parse(p, raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("engine: read corpus: %w", err)
	}

	docs := make(map[string]*models.Document, len(paths))
	for _, d := range parsed {
		if d != nil {
			docs[d.Path] = d
		}
	}
	return docs, nil
}
