package internal

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/linkgraph/internal/engine"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/mcpserver"
)

// RunMCP serves the read-only MCP tools on stdio. The graph and the index
// follow vault changes while the server runs.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	store, v, err := openVault(cfg)
	if err != nil {
		return err
	}
	db, err := openIndex(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	eng := engine.New(v, interaction.Deps{Reader: v}, cfg.Graph.EngineConfig(), engine.WithLogger(logger))
	if err := eng.Rescan(ctx); err != nil {
		return fmt.Errorf("initial rescan: %w", err)
	}
	srv := mcpserver.New(v, db, eng)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return eng.Run(gCtx)
	})
	g.Go(func() error {
		return index.Watch(gCtx, db, store, logger, cfg.Vault.Debounce,
			rescanOnChange(gCtx, eng, nil, logger))
	})
	g.Go(func() error {
		defer cancel()
		logger.Info("mcp: serving on stdio", slog.String("vault_path", cfg.Vault.Path))
		return srv.ServeStdio()
	})

	return g.Wait()
}
