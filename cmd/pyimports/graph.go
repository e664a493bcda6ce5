package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pyimports/internal/diagram"
	"github.com/dusk-indust/pyimports/internal/graph"
)

func newGraphCmd(flags *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build the import graph and print a summary",
		Long: `Build the import graph and print summary statistics.

With --json the full graph is printed: every node with its imports,
importers and external imports, the circular dependencies and the stats.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if _, err := a.builder.BuildGraph(cmd.Context(), force); err != nil {
				return err
			}
			if a.json {
				return a.printJSON(a.builder.ToDict())
			}
			s := a.builder.Stats()
			a.printf("files:                 %d\n", s.TotalFiles)
			a.printf("circular dependencies: %d\n", s.CircularDependencies)
			a.printf("orphaned files:        %d\n", s.OrphanedFiles)
			a.printf("entry points:          %d\n", s.EntryPoints)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the parse cache")
	return cmd
}

func newCyclesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "List circular import dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			cycles := a.builder.GetCircularDependencies()
			if a.json {
				if cycles == nil {
					cycles = []graph.CircularDependency{}
				}
				return a.printJSON(cycles)
			}
			if len(cycles) == 0 {
				a.printf("No circular dependencies.\n")
				return nil
			}
			for _, c := range cycles {
				a.printf("%-6s  %s\n", c.Severity, c.String())
			}
			return nil
		},
	}
}

func newOrphansCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "List files that neither import nor are imported by project files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			return a.printList(a.builder.GetOrphanedFiles(), "No orphaned files.")
		},
	}
}

func newEntryPointsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "entrypoints",
		Short: "List files nothing imports that import project files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			return a.printList(a.builder.GetEntryPoints(), "No entry points.")
		},
	}
}

func newChainCmd(flags *globalFlags) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "chain <file>",
		Short: "Print the tree of a file's transitive imports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			chain, ok := a.builder.GetImportChain(args[0], depth)
			if a.json {
				if !ok {
					return a.printJSON(map[string]any{})
				}
				return a.printJSON(chain)
			}
			if !ok {
				a.printf("%s is not in the import graph.\n", args[0])
				return nil
			}
			printChain(a, chain, 0)
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", graph.DefaultChainDepth, "maximum tree depth")
	return cmd
}

func printChain(a *app, c graph.ImportChain, level int) {
	a.printf("%s%s\n", strings.Repeat("  ", level), c.File)
	for _, child := range c.Imports {
		printChain(a, child, level+1)
	}
}

func newClustersCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "Group files by package and score how self-contained each package is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			clusters := graph.ComputeClusters(a.builder.Nodes())
			if a.json {
				if clusters == nil {
					clusters = []graph.ClusterNode{}
				}
				return a.printJSON(clusters)
			}
			if len(clusters) == 0 {
				a.printf("No clusters.\n")
				return nil
			}
			for _, c := range clusters {
				a.printf("%-30s cohesion %.2f  %d files\n", c.Name, c.CohesionScore, len(c.Members))
			}
			return nil
		},
	}
}

func newDiagramCmd(flags *globalFlags) *cobra.Command {
	var opts diagram.Options

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Print the import graph as a Mermaid diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			a.printf("%s", diagram.Mermaid(a.builder.Nodes(), a.builder.GetCircularDependencies(), opts))
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Clusters, "clusters", false, "group files of a package into subgraphs")
	cmd.Flags().BoolVar(&opts.CyclesOnly, "cycles-only", false, "draw only files in circular dependencies")
	return cmd
}
