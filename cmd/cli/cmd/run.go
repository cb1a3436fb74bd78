// Package cmd - run command
package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"capwedge/adapters/paramfile"
	"capwedge/core/engine"
	"capwedge/core/output"
	"capwedge/internal/config"
	"capwedge/internal/logging"
)

var (
	policyName string
	outputDir  string
	stdout     bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run EMTR calculations for configured scenarios",
	Long: `Calculate effective marginal tax rates for every scenario in the
scenario file and write the standard aggregate tables as CSV.

Examples:
  capwedge run
  capwedge run --policy current_law
  capwedge run --policy current_law --stdout
  capwedge run --output ./results`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&policyName, "policy", "p", "", "run a single named scenario")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides config)")
	runCmd.Flags().BoolVar(&stdout, "stdout", false, "print tables to stdout instead of writing files")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()
	cfg := config.Get()

	eng, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	var runs []*engine.Run
	if policyName != "" {
		sc, err := findScenario(ctx, cfg, policyName)
		if err != nil {
			return err
		}
		run, err := eng.Run(ctx, sc)
		if err != nil {
			return err
		}
		runs = append(runs, run)
	} else {
		if runs, err = eng.RunAll(ctx); err != nil {
			return err
		}
	}

	writer := output.NewWriter(cfg.Output.RatePrecision)
	dir := cfg.Output.Dir
	if outputDir != "" {
		dir = outputDir
	}

	for _, run := range runs {
		if n := len(run.Results.Undefined); n > 0 {
			fmt.Printf("Warning: %s has %d cells with a zero before-tax return\n",
				run.Scenario.Name, n)
		}
		if stdout {
			if err := printRun(writer, run); err != nil {
				return err
			}
			continue
		}
		if err := writer.WriteRun(run, dir); err != nil {
			return err
		}
		fmt.Printf("Wrote %d tables for %s to %s\n", len(run.Tables), run.Scenario.Name, dir)
	}

	logging.Info("run complete")
	fmt.Printf("\nCompleted %d scenario(s) in %s\n", len(runs), time.Since(start).Round(time.Millisecond))
	return nil
}

// scenariosCmd lists the configured scenarios
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the scenarios in the scenario file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		loader := paramfile.New(config.Get().Data)
		scenarios, err := loader.Scenarios(ctx)
		if err != nil {
			return err
		}
		for _, sc := range scenarios {
			fmt.Printf("%s (%s)\n", sc.Name, sc.Perspective)
		}
		return nil
	},
}

func newEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, error) {
	eng := engine.New(paramfile.New(cfg.Data))
	if err := eng.Init(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

func findScenario(ctx context.Context, cfg *config.Config, name string) (engine.Scenario, error) {
	loader := paramfile.New(cfg.Data)
	scenarios, err := loader.Scenarios(ctx)
	if err != nil {
		return engine.Scenario{}, err
	}
	for _, sc := range scenarios {
		if sc.Name == name {
			return sc, nil
		}
	}
	return engine.Scenario{}, fmt.Errorf("scenario %q is not in the scenario file", name)
}

func printRun(writer *output.Writer, run *engine.Run) error {
	fmt.Printf("=== %s ===\n", run.Scenario.Name)
	for _, name := range sortedTableNames(run) {
		fmt.Printf("\n--- %s ---\n", name)
		if err := writer.RenderTable(os.Stdout, run, name); err != nil {
			return err
		}
	}
	return nil
}

func sortedTableNames(run *engine.Run) []string {
	names := make([]string, 0, len(run.Tables))
	for name := range run.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
