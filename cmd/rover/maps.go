package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/lunarover/internal/charts"
	"github.com/san-kum/lunarover/internal/storage"
	"github.com/san-kum/lunarover/internal/terrain"
)

func openMaps() (*storage.TerrainStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return storage.OpenTerrain(terrainDB())
}

func listMaps(cmd *cobra.Command, args []string) error {
	maps, err := openMaps()
	if err != nil {
		return err
	}
	defer maps.Close()

	runID := ""
	if len(args) == 1 {
		runID = args[0]
	}
	infos, err := maps.Maps(runID)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no maps found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRUN\tTIME\tVERSION\tCELLS\tCOVERAGE")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f%%\n",
			info.ID,
			info.RunID,
			info.CreatedAt.Format("2006-01-02 15:04:05"),
			info.Version,
			info.Cells,
			info.Coverage*100,
		)
	}
	return w.Flush()
}

func showMap(cmd *cobra.Command, args []string) error {
	maps, err := openMaps()
	if err != nil {
		return err
	}
	defer maps.Close()

	snap, err := maps.LoadMap(args[0])
	if err != nil {
		return err
	}
	fmt.Println(renderMap("map "+args[0], snap))

	if mapPNG != "" {
		if err := charts.MapHeatmap(snap, "map "+args[0], mapPNG); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", mapPNG)
	}
	return nil
}

func exportMap(cmd *cobra.Command, args []string) error {
	maps, err := openMaps()
	if err != nil {
		return err
	}
	defer maps.Close()

	snap, err := maps.LoadMap(args[0])
	if err != nil {
		return err
	}

	out := mapOut
	if out == "" {
		out = args[0] + ".map.gz"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := terrain.Encode(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %d cells to %s\n", snap.Len(), out)
	return nil
}

func inspectMap(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := terrain.Decode(f)
	if err != nil {
		return err
	}
	fmt.Println(renderMap(args[0], snap))
	return nil
}

func deleteMap(cmd *cobra.Command, args []string) error {
	maps, err := openMaps()
	if err != nil {
		return err
	}
	defer maps.Close()

	if err := maps.DeleteMap(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted map %s\n", args[0])
	return nil
}
