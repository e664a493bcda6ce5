package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pyimports/internal/config"
	"github.com/dusk-indust/pyimports/internal/graph"
	"github.com/dusk-indust/pyimports/internal/logging"
	"github.com/dusk-indust/pyimports/internal/updater"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	root     string
	config   string
	logLevel string
	json     bool
}

// cgoCommands holds constructors for commands that need the Kuzu C library.
var cgoCommands []func(*globalFlags) *cobra.Command

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "pyimports",
		Short: "Python import graph and refactoring impact analysis",
		Long: `pyimports scans a Python project, builds the graph of which files import
which, reports circular dependencies, orphans and entry points, predicts the
impact of moving, renaming or deleting a file, and rewrites import statements
after a move.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.root, "root", ".", "path to the Python project")
	root.PersistentFlags().StringVar(&flags.config, "config", "", "config file (default: <root>/pyimports.yml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "print JSON instead of text")

	root.AddCommand(
		newGraphCmd(flags),
		newCyclesCmd(flags),
		newOrphansCmd(flags),
		newEntryPointsCmd(flags),
		newChainCmd(flags),
		newClustersCmd(flags),
		newDiagramCmd(flags),
		newImpactCmd(flags),
		newDistanceCmd(flags),
		newUpdateCmd(flags),
		newCheckCmd(flags),
		newWatchCmd(flags),
		newServeCmd(flags),
	)
	for _, c := range cgoCommands {
		root.AddCommand(c(flags))
	}
	return root
}

// app is the per-invocation wiring built from the global flags.
type app struct {
	root    string
	cfg     *config.ProjectConfig
	logger  *slog.Logger
	builder *graph.Builder
	out     io.Writer
	json    bool
}

func (f *globalFlags) load(cmd *cobra.Command) (*app, error) {
	root, err := filepath.Abs(f.root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	var cfg *config.ProjectConfig
	if f.config != "" {
		cfg, err = config.LoadFile(f.config)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := f.logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger := logging.New(cmd.ErrOrStderr(), logging.LevelFromString(level))

	opts := []graph.Option{
		graph.WithLogger(logger),
		graph.WithExcludeDirs(cfg.ExcludeDirs...),
		graph.WithExcludeGlobs(cfg.ExcludeGlobs...),
	}
	if cfg.Workers > 0 {
		opts = append(opts, graph.WithWorkers(cfg.Workers))
	}
	if cfg.ParseCacheSize > 0 {
		opts = append(opts, graph.WithParseCacheSize(cfg.ParseCacheSize))
	}

	return &app{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		builder: graph.NewBuilder(root, opts...),
		out:     cmd.OutOrStdout(),
		json:    f.json,
	}, nil
}

// built loads the app and builds the graph.
func (f *globalFlags) built(cmd *cobra.Command) (*app, error) {
	a, err := f.load(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.builder.EnsureBuilt(cmd.Context()); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) updater() *updater.Updater {
	return updater.New(a.root,
		updater.WithBuilder(a.builder),
		updater.WithLogger(a.logger),
		updater.WithBackupSuffix(a.cfg.Backup()),
	)
}

func (a *app) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = a.out.Write(append(out, '\n'))
	return err
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// printList prints one path per line, or the list as JSON.
func (a *app) printList(items []string, empty string) error {
	if a.json {
		return a.printJSON(items)
	}
	if len(items) == 0 {
		a.printf("%s\n", empty)
		return nil
	}
	for _, it := range items {
		a.printf("%s\n", it)
	}
	return nil
}
