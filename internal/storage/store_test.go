package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/planner"
	"github.com/san-kum/lunarover/internal/rover"
)

func sampleResult() *mission.Result {
	return &mission.Result{
		Reason:   mission.ReasonParked,
		Ticks:    2,
		Phase:    planner.Parked,
		Coverage: 0.82,
		Energy:   energy.State{Remaining: 480, Capacity: 500, Used: 20},
		Records: []mission.TickRecord{
			{Tick: 0, Pose: rover.Pose{X: 0, Y: 0}, Phase: planner.Explore, Action: rover.NewDrive(0.2, 1),
				Executed: true, Cost: 2.2, Remaining: 497.8, Coverage: 0.4, Candidates: 52, Rejected: 3, Ceiling: 0.6},
			{Tick: 1, Pose: rover.Pose{X: 1, Y: 0.2}, Phase: planner.Return, Action: rover.ParkAction(),
				Executed: true, Cost: 0.1, Remaining: 497.7, Coverage: 0.82, Ceiling: 0.6,
				Faults: []mission.FaultKind{mission.SensorFault}},
		},
		Faults:  []mission.Fault{{Kind: mission.SensorFault, Tick: 1}},
		Metrics: map[string]float64{"energy_used": 2.3},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Preset: "flat", Policy: "greedy", Seed: 42, MaxTicks: 100}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "flat" || meta.Seed != 42 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Reason != mission.ReasonParked {
		t.Errorf("expected reason parked, got %q", meta.Reason)
	}
	if meta.Faults != 1 {
		t.Errorf("expected 1 fault, got %d", meta.Faults)
	}
	if meta.Metrics["energy_used"] != 2.3 {
		t.Errorf("expected energy_used 2.3, got %f", meta.Metrics["energy_used"])
	}

	ticks, err := st.LoadTicks(runID)
	if err != nil {
		t.Fatalf("load ticks failed: %v", err)
	}
	if len(ticks) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(ticks))
	}
	if ticks[0].Action != "drive" || ticks[1].Phase != "return" {
		t.Errorf("unexpected rows: %+v", ticks)
	}
	if ticks[1].Remaining != 497.7 {
		t.Errorf("expected remaining 497.7, got %f", ticks[1].Remaining)
	}
	if len(ticks[1].Faults) != 1 || ticks[1].Faults[0] != "sensor_fault" {
		t.Errorf("expected sensor_fault, got %v", ticks[1].Faults)
	}
}

func TestStoreListOrdered(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, preset := range []string{"late", "early"} {
		_, err := st.Save(RunMetadata{Preset: preset, Timestamp: base.Add(time.Duration(1-i) * time.Hour)}, sampleResult())
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	// stray files are ignored
	if err := os.MkdirAll(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Preset != "early" || runs[1].Preset != "late" {
		t.Errorf("expected oldest first, got %s, %s", runs[0].Preset, runs[1].Preset)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestAnnotate(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{}, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	meta, _ := st.Load(runID)
	meta.MapID = "map-1"
	if err := st.Annotate(*meta); err != nil {
		t.Fatalf("annotate failed: %v", err)
	}
	again, _ := st.Load(runID)
	if again.MapID != "map-1" {
		t.Errorf("expected map id to persist, got %q", again.MapID)
	}

	if err := st.Annotate(RunMetadata{ID: "missing"}); err == nil {
		t.Error("expected error annotating a missing run")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{ID: "r1"}, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var out struct {
		Run     RunMetadata       `json:"run"`
		Result  map[string]any    `json:"result"`
		Records []json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Run.ID != "r1" {
		t.Errorf("expected run r1, got %q", out.Run.ID)
	}
	if len(out.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(out.Records))
	}
	if out.Result["reason"] != "parked" {
		t.Errorf("expected reason parked, got %v", out.Result["reason"])
	}
}

func TestExportRun(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Preset: "flat"}, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportRun(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var out RunExport
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Run.ID != runID || len(out.Ticks) != 2 {
		t.Errorf("unexpected export: %+v", out)
	}
	if out.Ticks[1].Phase != "return" {
		t.Errorf("expected return phase, got %s", out.Ticks[1].Phase)
	}

	if err := st.ExportRun(&buf, "missing"); err == nil {
		t.Error("expected error for a missing run")
	}
}
