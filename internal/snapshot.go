package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/starford/linkgraph/internal/engine"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/render"
)

// Snapshot output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// DefaultMaxTicks caps a headless layout run.
const DefaultMaxTicks = 600

// SnapshotOptions controls a headless layout run.
type SnapshotOptions struct {
	Format   string
	MaxTicks int
}

// RunSnapshot lays out the vault without a UI and writes the settled graph to
// out as DOT or SVG. It returns the number of ticks run.
func RunSnapshot(ctx context.Context, out io.Writer, so SnapshotOptions, opts ...Option) (int, error) {
	if so.Format != FormatDOT && so.Format != FormatSVG {
		return 0, fmt.Errorf("snapshot: unknown format %q", so.Format)
	}
	if so.MaxTicks <= 0 {
		so.MaxTicks = DefaultMaxTicks
	}

	app, logger, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	_, v, err := openVault(app.config)
	if err != nil {
		return 0, err
	}

	eng := engine.New(v, interaction.Deps{Reader: v}, app.config.Graph.EngineConfig(), engine.WithLogger(logger))
	defer eng.Controller().Close()
	if err := eng.Rescan(ctx); err != nil {
		return 0, fmt.Errorf("snapshot: rescan: %w", err)
	}

	// The loop is not running, so the engine is driven directly.
	ticks := 0
	now := time.Now()
	for ticks < so.MaxTicks && eng.Snapshot().Graph.Len() > 0 && !eng.Simulation().Settled() {
		if err := ctx.Err(); err != nil {
			return ticks, err
		}
		eng.Tick(now)
		now = now.Add(time.Second / 30)
		ticks++
	}

	snap := eng.Snapshot()
	logger.Info("snapshot: layout finished",
		slog.Int("ticks", ticks),
		slog.Bool("settled", snap.Settled),
		slog.Int("nodes", snap.Graph.Len()))

	data := []byte(render.ToDOT(snap.Frame))
	if so.Format == FormatSVG {
		if data, err = render.RenderSVG(ctx, string(data)); err != nil {
			return ticks, err
		}
	}
	if _, err := out.Write(data); err != nil {
		return ticks, fmt.Errorf("snapshot: write: %w", err)
	}
	return ticks, nil
}
