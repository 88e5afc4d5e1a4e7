package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/lunarover/internal/sweep"
)

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required (available: %s)", strings.Join(sweep.ParamNames(), ", "))
	}

	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, spec := range sweepParams {
		name, values, err := sweep.ParseParam(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs, err := sweep.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	gs.SetWorkers(sweepWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	combos := len(gs.Combinations())
	fmt.Printf("sweeping %d combinations x %d seeds...\n", combos, len(sweepSeeds))
	start := time.Now()

	report, err := gs.Search(ctx, base, sweepSeeds, sweepMetric, !sweepMinimize)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\tPARAMS\tMEAN %s\tSTDDEV\tOUTCOMES\n", strings.ToUpper(report.Metric))
	for i, trial := range report.Trials {
		mark := ""
		if i == report.Best {
			mark = "*"
		}
		if trial.Err != "" {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t%s\n", mark, trial.Label(), trial.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%s\n", mark, trial.Label(), trial.Mean, trial.StdDev, outcomes(trial.Reasons))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if report.Best >= 0 {
		fmt.Println()
		fmt.Println(title.Render("best: ") + white.Render(report.Trials[report.Best].Label()))
	} else {
		fmt.Println(magenta.Render("\nevery trial failed"))
	}

	if sweepJSON != "" {
		f, err := os.Create(sweepJSON)
		if err != nil {
			return err
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return nil
}

func outcomes(reasons map[string]int) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range sortedKeys(reasons) {
		parts = append(parts, fmt.Sprintf("%s:%d", r, reasons[r]))
	}
	return strings.Join(parts, " ")
}
