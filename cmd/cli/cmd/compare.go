// Package cmd - compare command
package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"capwedge/core/output"
	"capwedge/internal/config"
)

var (
	compareOutputDir string
	compareStdout    bool
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare [baseline] [reform]",
	Short: "Compare aggregate tables between two scenarios",
	Long: `Run two scenarios and report the per-group change in each
standard aggregate table: delta, percent change where the baseline is
nonzero, and the direction of the change.

Examples:
  capwedge compare current_law reform
  capwedge compare current_law reform --stdout`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareOutputDir, "output", "o", "", "output directory (overrides config)")
	compareCmd.Flags().BoolVar(&compareStdout, "stdout", false, "print diff tables to stdout instead of writing files")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()

	baseline, err := findScenario(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	reform, err := findScenario(ctx, cfg, args[1])
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	diffs, err := eng.Compare(ctx, baseline, reform)
	if err != nil {
		return err
	}

	writer := output.NewWriter(cfg.Output.RatePrecision)
	if compareStdout {
		names := make([]string, 0, len(diffs))
		for name := range diffs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("\n--- %s ---\n", name)
			if err := writer.RenderDiff(os.Stdout, diffs[name]); err != nil {
				return err
			}
		}
		return nil
	}

	dir := cfg.Output.Dir
	if compareOutputDir != "" {
		dir = compareOutputDir
	}
	if err := writer.WriteDiffs(diffs, baseline.Name, reform.Name, dir); err != nil {
		return err
	}
	fmt.Printf("Wrote %d diff tables for %s vs %s to %s\n", len(diffs), baseline.Name, reform.Name, dir)
	return nil
}
