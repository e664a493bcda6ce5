package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pyimports/internal/updater"
)

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	var dryRun, showDiff bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Rewrite import statements after a file moves",
		Long: `Rewrite "import X" and "from X import ..." statements in every file that
imports the given file, so they use its new module name. The file itself is
not moved. Each modified file is backed up first (suffix from the config,
default .bak). Results that would not parse are never written.

Examples:
  pyimports update move app/models.py core/models.py --dry-run --diff
  pyimports update rename app/utils.py helpers.py`,
	}
	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report changes without writing files")
	cmd.PersistentFlags().BoolVar(&showDiff, "diff", false, "print a unified diff of each change")

	run := func(update func(ctx context.Context, u *updater.Updater, args []string) ([]updater.UpdateResult, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := flags.load(cmd)
			if err != nil {
				return err
			}
			results, err := update(cmd.Context(), a.updater(), args)
			if err != nil {
				return err
			}
			return printResults(a, results, dryRun, showDiff)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "move <old-path> <new-path>",
			Short: "Update importers of a moved file",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, u *updater.Updater, args []string) ([]updater.UpdateResult, error) {
				return u.UpdateForMove(ctx, args[0], args[1], dryRun)
			}),
		},
		&cobra.Command{
			Use:   "rename <file> <new-name>",
			Short: "Update importers of a renamed file",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, u *updater.Updater, args []string) ([]updater.UpdateResult, error) {
				return u.UpdateForRename(ctx, args[0], args[1], dryRun)
			}),
		},
	)
	return cmd
}

func printResults(a *app, results []updater.UpdateResult, dryRun, showDiff bool) error {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}

	if a.json {
		type fileResult struct {
			File        string `json:"file"`
			Success     bool   `json:"success"`
			ChangesMade int    `json:"changes_made"`
			Error       string `json:"error,omitempty"`
			Diff        string `json:"diff,omitempty"`
		}
		out := make([]fileResult, 0, len(results))
		for _, r := range results {
			fr := fileResult{File: r.File, Success: r.Success, ChangesMade: r.ChangesMade, Error: r.Error}
			if showDiff {
				fr.Diff, _ = r.Diff()
			}
			out = append(out, fr)
		}
		if err := a.printJSON(out); err != nil {
			return err
		}
	} else {
		if len(results) == 0 {
			a.printf("No files import it.\n")
		}
		verb := "updated"
		if dryRun {
			verb = "would update"
		}
		for _, r := range results {
			if !r.Success {
				a.printf("FAIL %s: %s\n", r.File, r.Error)
				continue
			}
			a.printf("%s %s (%d changes)\n", verb, r.File, r.ChangesMade)
			if showDiff && r.ChangesMade > 0 {
				d, err := r.Diff()
				if err != nil {
					return err
				}
				a.printf("%s", d)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to update", failed, len(results))
	}
	return nil
}

func newCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Report imports that point into the project but do not resolve",
		Long: `Report import statements that refer to project modules which do not exist,
for example after a file was moved without updating its importers.
Without arguments every project file is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.built(cmd)
			if err != nil {
				return err
			}
			files := args
			if len(files) == 0 {
				files = a.builder.Paths()
			}

			broken, err := a.updater().ValidateNoBrokenImports(cmd.Context(), files)
			if err != nil {
				return err
			}
			if a.json {
				if err := a.printJSON(broken); err != nil {
					return err
				}
			} else {
				paths := make([]string, 0, len(broken))
				for p := range broken {
					paths = append(paths, p)
				}
				sort.Strings(paths)
				for _, p := range paths {
					a.printf("%s\n", p)
					for _, stmt := range broken[p] {
						a.printf("  %s\n", stmt)
					}
				}
				if len(paths) == 0 {
					a.printf("No broken imports.\n")
				}
			}
			if len(broken) > 0 {
				return fmt.Errorf("broken imports in %d files", len(broken))
			}
			return nil
		},
	}
}
