package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pyimports/internal/impact"
)

func newImpactCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Predict the impact of moving, renaming or deleting a file",
		Long: `Predict which files break when a file is moved, renamed or deleted.

Nothing is modified. The report lists the direct importers, the
import rewrites they need, a risk level and recommendations.

Examples:
  pyimports impact move app/models.py core/models.py
  pyimports impact rename app/utils.py helpers.py
  pyimports impact delete scripts/old.py`,
	}

	run := func(analyze func(ctx context.Context, an *impact.Analyzer, args []string) (*impact.ImpactReport, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := flags.load(cmd)
			if err != nil {
				return err
			}
			report, err := analyze(cmd.Context(), impact.NewAnalyzer(a.builder, a.logger), args)
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(report)
			}
			printReport(a, report)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "move <source> <target>",
			Short: "Impact of moving a file",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, an *impact.Analyzer, args []string) (*impact.ImpactReport, error) {
				return an.AnalyzeMove(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "rename <file> <new-name>",
			Short: "Impact of renaming a file within its directory",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, an *impact.Analyzer, args []string) (*impact.ImpactReport, error) {
				return an.AnalyzeRename(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "delete <file>",
			Short: "Impact of deleting a file",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, an *impact.Analyzer, args []string) (*impact.ImpactReport, error) {
				return an.AnalyzeDelete(ctx, args[0])
			}),
		},
	)
	return cmd
}

func printReport(a *app, r *impact.ImpactReport) {
	if r.TargetFile != "" {
		a.printf("%s %s -> %s\n", r.Operation, r.SourceFile, r.TargetFile)
	} else {
		a.printf("%s %s\n", r.Operation, r.SourceFile)
	}
	a.printf("risk: %s\n", r.RiskLevel)
	if r.CircularDependencyRisk {
		a.printf("part of a circular dependency\n")
	}

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		a.printf("\n%s (%d):\n", title, len(items))
		for _, it := range items {
			a.printf("  %s\n", it)
		}
	}
	section("affected files", r.AffectedFiles)
	if n := len(r.TransitivelyAffected) - len(r.AffectedFiles); n > 0 {
		a.printf("\n%d more files import it transitively\n", n)
	}

	if len(r.ImportChanges) > 0 {
		a.printf("\nimport changes (%d):\n", len(r.ImportChanges))
		for _, c := range r.ImportChanges {
			if c.NewImport == "" {
				a.printf("  %s: remove %s\n", c.File, c.OldImport)
				continue
			}
			a.printf("  %s: %s -> %s\n", c.File, c.OldImport, c.NewImport)
		}
	}
	section("test files affected", r.TestFilesAffected)
	section("warnings", r.Warnings)
	section("recommendations", r.Recommendations)
}

func newDistanceCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "distance <from> <to>",
		Short: "Count import hops from one file to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.load(cmd)
			if err != nil {
				return err
			}
			d, err := impact.NewAnalyzer(a.builder, a.logger).ImportDistance(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(map[string]any{"from": args[0], "to": args[1], "distance": d})
			}
			if d < 0 {
				a.printf("%s does not reach %s\n", args[0], args[1])
				return nil
			}
			a.printf("%d\n", d)
			return nil
		},
	}
}
