package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pyimports/internal/mcptools"
	"github.com/dusk-indust/pyimports/internal/watch"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the graph whenever Python files change",
		Long: `Watch the project and rebuild the import graph after each burst of
changes to .py files, printing the new summary. Stops on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			printStats := func() {
				s := a.builder.Stats()
				a.printf("files %d  cycles %d  orphans %d  entry points %d\n",
					s.TotalFiles, s.CircularDependencies, s.OrphanedFiles, s.EntryPoints)
			}
			printStats()

			w, err := watch.New(a.root, a.builder,
				watch.WithDebounce(a.cfg.WatchDebounce()),
				watch.WithExcludes(a.cfg.ExcludeDirs, a.cfg.ExcludeGlobs),
				watch.WithLogger(a.logger),
				watch.WithHandler(func(changes []watch.Change) {
					if err := a.builder.EnsureBuilt(ctx); err != nil {
						a.logger.Error("rebuild failed", "error", err)
						return
					}
					a.printf("%d files changed: ", len(changes))
					printStats()
				}),
			)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	var stdio, watchFiles bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import graph tools over MCP",
		Long: `Run an MCP server exposing the import graph, impact analysis and import
update tools for the project. Streamable HTTP by default, or stdio with
--stdio. With --watch the graph is invalidated as files change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watchFiles {
				w, err := watch.New(a.root, a.builder,
					watch.WithDebounce(a.cfg.WatchDebounce()),
					watch.WithExcludes(a.cfg.ExcludeDirs, a.cfg.ExcludeGlobs),
					watch.WithLogger(a.logger),
				)
				if err != nil {
					return err
				}
				go func() {
					if err := w.Run(ctx); err != nil {
						a.logger.Error("watcher stopped", "error", err)
					}
				}()
			}

			svc := mcptools.NewImportService(a.builder, a.updater())
			if stdio {
				return mcptools.RunMCPServerStdio(ctx, svc)
			}
			if addr == "" {
				addr = a.cfg.Addr()
			}
			a.logger.Info("serving MCP", "addr", addr, "root", a.root)
			return mcptools.RunMCPServer(ctx, svc, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8089)")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve on stdin/stdout instead of HTTP")
	cmd.Flags().BoolVar(&watchFiles, "watch", false, "invalidate the graph when files change")
	return cmd
}
