package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/lunarover/internal/mission"
)

type ExportData struct {
	Run     RunMetadata          `json:"run"`
	Result  *mission.Result      `json:"result"`
	Records []mission.TickRecord `json:"records"`
}

// ExportJSON writes the run and its tick records as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, res *mission.Result) error {
	data := ExportData{
		Run:     meta,
		Result:  res,
		Records: res.Records,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

type RunExport struct {
	Run   RunMetadata `json:"run"`
	Ticks []TickRow   `json:"ticks"`
}

// ExportRun writes a stored run, metadata and ticks, as indented JSON.
func (s *Store) ExportRun(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	ticks, err := s.LoadTicks(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(RunExport{Run: *meta, Ticks: ticks})
}
