//go:build cgo

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pyimports/internal/graph"
)

// defaultDBPath is where export writes and deps reads when --db is not set.
const defaultDBPath = ".pyimports/graph"

func init() {
	cgoCommands = append(cgoCommands, newExportCmd, newDepsCmd)
}

func dbPath(a *app, flag string) string {
	if flag == "" {
		return filepath.Join(a.root, filepath.FromSlash(defaultDBPath))
	}
	return flag
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var db string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the import graph to a Kuzu database",
		Long: `Write the import graph to an embedded Kuzu graph database.

Files become File nodes joined by IMPORTS edges, external top-level
modules become Package nodes reached through USES edges, and each
circular dependency becomes a Cycle node linked from its members with
IN_CYCLE edges. The database can then be queried with Cypher or with
"pyimports deps".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			path := dbPath(a, db)
			if _, err := os.Stat(path); err == nil {
				if !overwrite {
					return fmt.Errorf("%s already exists (use --overwrite to replace it)", path)
				}
				if err := os.RemoveAll(path); err != nil {
					return fmt.Errorf("remove old database: %w", err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}

			store, err := graph.NewKuzuFileStore(path)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := graph.Export(cmd.Context(), a.builder, store)
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(summary)
			}
			a.printf("exported %d files, %d packages, %d cycles, %d edges to %s\n",
				summary.Files, summary.Packages, summary.Cycles, summary.Edges, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "database path (default <root>/"+defaultDBPath+")")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing database")
	return cmd
}

// newDepsCmd queries a previously exported database, so it answers without
// rescanning the project.
func newDepsCmd(flags *globalFlags) *cobra.Command {
	var db, direction string
	var depth int

	cmd := &cobra.Command{
		Use:   "deps <file>",
		Short: "Query an exported graph for a file's dependencies or dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.load(cmd)
			if err != nil {
				return err
			}
			dir := graph.DirectionUpstream
			switch strings.ToLower(direction) {
			case "upstream", "":
			case "downstream":
				dir = graph.DirectionDownstream
			default:
				return fmt.Errorf("direction must be upstream or downstream, got %q", direction)
			}

			path := dbPath(a, db)
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no exported graph at %s (run pyimports export first)", path)
			}
			store, err := graph.NewKuzuFileStore(path)
			if err != nil {
				return err
			}
			defer store.Close()

			chains, err := store.GetDependencies(cmd.Context(), args[0], dir, depth)
			if err != nil {
				return err
			}
			if a.json {
				if chains == nil {
					chains = []graph.DependencyChain{}
				}
				return a.printJSON(chains)
			}
			if len(chains) == 0 {
				a.printf("No %s dependencies for %s.\n", dir, args[0])
				return nil
			}
			for _, c := range chains {
				a.printf("%d  %s\n", c.Depth, strings.Join(c.Nodes, " -> "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "database path (default <root>/"+defaultDBPath+")")
	cmd.Flags().StringVar(&direction, "direction", "upstream", "upstream (what it imports) or downstream (what imports it)")
	cmd.Flags().IntVar(&depth, "depth", 5, "maximum traversal depth")
	return cmd
}
