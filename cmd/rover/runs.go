package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/lunarover/internal/charts"
	"github.com/san-kum/lunarover/internal/config"
	"github.com/san-kum/lunarover/internal/planner"
	"github.com/san-kum/lunarover/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tPOLICY\tTIME\tSEED\tTICKS\tREASON\tCOVERAGE\tREMAINING")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%.1f%%\t%.1fWh\n",
			run.ID,
			run.Preset,
			run.Policy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Ticks,
			run.Reason,
			run.Coverage*100,
			run.Remaining,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	ticks, err := st.LoadTicks(meta.ID)
	if err != nil {
		return err
	}

	fmt.Println(renderMetadata(*meta))

	faults := make(map[string]int)
	phases := make(map[string]int)
	for _, t := range ticks {
		phases[t.Phase]++
		for _, f := range t.Faults {
			faults[f]++
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nPHASE\tTICKS")
	for _, p := range []planner.Phase{planner.Explore, planner.Return, planner.Parked} {
		fmt.Fprintf(w, "%s\t%d\n", p, phases[p.String()])
	}
	if len(faults) > 0 {
		fmt.Fprintln(w, "\nFAULT\tCOUNT")
		for _, name := range sortedKeys(faults) {
			fmt.Fprintf(w, "%s\t%d\n", name, faults[name])
		}
	}
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for _, name := range sortedKeys(meta.Metrics) {
		fmt.Fprintf(w, "%s\t%.4f\n", name, meta.Metrics[name])
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	ticks, err := st.LoadTicks(meta.ID)
	if err != nil {
		return err
	}

	if len(ticks) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("ticks: %d\n\n", len(ticks))

	series := []struct {
		caption string
		value   func(storage.TickRow) float64
	}{
		{"remaining energy (Wh)", func(t storage.TickRow) float64 { return t.Remaining }},
		{"coverage (%)", func(t storage.TickRow) float64 { return t.Coverage * 100 }},
		{"executed hazard", func(t storage.TickRow) float64 { return t.Hazard }},
	}
	for _, s := range series {
		data := make([]float64, len(ticks))
		for i, t := range ticks {
			data[i] = s.value(t)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if plotPNG != "" {
		if err := os.MkdirAll(plotPNG, 0755); err != nil {
			return err
		}
		files, err := charts.RunCharts(ticks, plotPNG)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("wrote %s\n", f)
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	return st.ExportRun(os.Stdout, args[0])
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tCRATERS\tROCKS\tENERGY\tCAMERA EVERY\tFAULT TICKS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%.0fWh\t%d\t%d\n",
			name, cfg.Sim.Craters, cfg.Sim.Rocks, cfg.Energy.Initial, cfg.Sim.CameraEvery, len(cfg.Sim.FaultTicks))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npolicies: %s\n", strings.Join(planner.NewRegistry().Names(), ", "))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
