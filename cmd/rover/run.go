package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/lunarover/internal/config"
	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/storage"
)

// loadConfig layers the preset, the config file and any flags the user set,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("max-ticks") {
		cfg.Mission.MaxTicks = maxTicks
	}
	if flags.Changed("policy") {
		cfg.Planner.Policy = policy
	}
	if flags.Changed("coverage") {
		cfg.Planner.CoverageTarget = coverageTarget
	}
	if flags.Changed("energy") && initialEnergy > 0 {
		cfg.SetInitialEnergy(initialEnergy)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func terrainDB() string {
	return filepath.Join(dataDir, config.DefaultTerrainDB)
}

func runMission(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	var maps *storage.TerrainStore
	if priorMap != "" || !noMap {
		maps, err = storage.OpenTerrain(terrainDB())
		if err != nil {
			return err
		}
		defer maps.Close()
	}

	var opts []config.Option
	if priorMap != "" {
		snap, err := maps.LoadMap(priorMap)
		if err != nil {
			return err
		}
		opts = append(opts, config.WithPriorMap(snap))
	}

	rig, err := cfg.Build(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running mission %s (policy %s, seed %d)...\n", cfg.Name, cfg.Planner.Policy, cfg.Sim.Seed)
	start := time.Now()

	result, err := rig.Driver.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Preset:   cfg.Name,
		Policy:   cfg.Planner.Policy,
		Seed:     cfg.Sim.Seed,
		MaxTicks: cfg.Mission.MaxTicks,
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}
	if err := config.Save(filepath.Join(st.Dir(runID), "config.yaml"), cfg); err != nil {
		return err
	}

	saved, err := st.Load(runID)
	if err != nil {
		return err
	}
	if !noMap {
		mapID, err := maps.SaveMap(runID, rig.Map.Snapshot())
		if err != nil {
			return err
		}
		saved.MapID = mapID
		if err := st.Annotate(*saved); err != nil {
			return err
		}
	}

	if exportPath != "" {
		if err := writeExport(exportPath, *saved, result); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n\n", elapsed.Round(time.Millisecond))
	fmt.Println(renderSummary(*saved, result))
	return nil
}

func writeExport(path string, meta storage.RunMetadata, res *mission.Result) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return storage.ExportJSON(w, meta, res)
}
