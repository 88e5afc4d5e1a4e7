package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/lunarover/internal/config"
	"github.com/san-kum/lunarover/internal/monitoring"
)

var (
	dataDir string
	verbose bool
	quiet   bool

	// run flags
	configFile     string
	preset         string
	seed           int64
	maxTicks       uint64
	policy         string
	coverageTarget float64
	initialEnergy  float64
	priorMap       string
	noMap          bool
	exportPath     string

	// sweep flags
	sweepParams   []string
	sweepSeeds    []int64
	sweepMetric   string
	sweepMinimize bool
	sweepWorkers  int
	sweepJSON     string

	// plot and map flags
	plotPNG string
	mapOut  string
	mapPNG  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rover",
		Short: "autonomous lunar rover mission lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			monitoring.SetVerbose(verbose)
			if quiet {
				monitoring.SetLogger(nil)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".lunarover", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every tick")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "mute diagnostic logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one mission and store it",
		Args:  cobra.NoArgs,
		RunE:  runMission,
	}
	addMissionFlags(runCmd)
	runCmd.Flags().Int64Var(&seed, "seed", 42, "terrain seed")
	runCmd.Flags().Uint64Var(&maxTicks, "max-ticks", config.DefaultMaxTicks, "mission clock limit")
	runCmd.Flags().StringVar(&policy, "policy", "greedy", "ranking policy")
	runCmd.Flags().Float64Var(&coverageTarget, "coverage", 0.8, "coverage target in [0, 1]")
	runCmd.Flags().Float64Var(&initialEnergy, "energy", 0, "initial energy in Wh (0 keeps the config value)")
	runCmd.Flags().StringVar(&priorMap, "prior-map", "", "start from a stored map id")
	runCmd.Flags().BoolVar(&noMap, "no-map", false, "do not store the final terrain map")
	runCmd.Flags().StringVar(&exportPath, "export", "", "also write the full result as JSON to this file (- for stdout)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy, coverage and hazard over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotPNG, "png", "", "also write PNG charts into this directory")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets and policies",
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search mission parameters over several seeds",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addMissionFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter grid as name=v1,v2,... (repeatable)")
	sweepCmd.Flags().Int64SliceVar(&sweepSeeds, "seeds", []int64{1, 2, 3}, "terrain seeds")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "coverage", "score to rank by")
	sweepCmd.Flags().BoolVar(&sweepMinimize, "minimize", false, "rank lower scores first")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "parallel missions (0 uses every CPU)")
	sweepCmd.Flags().StringVar(&sweepJSON, "json", "", "write the report as JSON to this file")

	mapCmd := &cobra.Command{
		Use:   "map",
		Short: "inspect stored terrain maps",
	}
	mapListCmd := &cobra.Command{
		Use:   "list [run_id]",
		Short: "list stored maps, optionally for one run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listMaps,
	}
	mapShowCmd := &cobra.Command{
		Use:   "show [map_id]",
		Short: "render a stored map",
		Args:  cobra.ExactArgs(1),
		RunE:  showMap,
	}
	mapShowCmd.Flags().StringVar(&mapPNG, "png", "", "also write an elevation heat map to this PNG file")
	mapExportCmd := &cobra.Command{
		Use:   "export [map_id]",
		Short: "write a stored map to a compressed map file",
		Args:  cobra.ExactArgs(1),
		RunE:  exportMap,
	}
	mapExportCmd.Flags().StringVarP(&mapOut, "out", "o", "", "output file (default <map_id>.map.gz)")
	mapInspectCmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "render a map file written by export",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectMap,
	}
	mapDeleteCmd := &cobra.Command{
		Use:   "delete [map_id]",
		Short: "delete a stored map",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteMap,
	}
	mapCmd.AddCommand(mapListCmd, mapShowCmd, mapExportCmd, mapInspectCmd, mapDeleteCmd)

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportJSONCmd, presetsCmd, sweepCmd, mapCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addMissionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "scenario preset")
}
