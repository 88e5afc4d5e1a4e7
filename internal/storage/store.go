// Package storage persists mission runs. Each run lives in its own
// directory holding metadata.json and a per-tick ticks.csv; terrain maps go
// to a SQLite database shared by all runs.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/lunarover/internal/mission"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir returns the directory holding run id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.baseDir, id)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Policy    string             `json:"policy"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	MaxTicks  uint64             `json:"max_ticks"`
	Reason    mission.Reason     `json:"reason"`
	Ticks     uint64             `json:"ticks"`
	Coverage  float64            `json:"coverage"`
	Remaining float64            `json:"remaining"`
	Used      float64            `json:"used"`
	Faults    int                `json:"faults"`
	MapID     string             `json:"map_id,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

var tickHeader = []string{
	"tick", "x", "y", "z", "yaw", "phase", "policy", "action", "turn", "distance",
	"executed", "predicted", "cost", "remaining", "coverage", "hazard",
	"candidates", "rejected", "ceiling", "faults",
}

// Save writes a finished run. meta supplies the run settings; the outcome
// fields are filled from res. The generated run ID is returned.
func (s *Store) Save(meta RunMetadata, res *mission.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	meta.Reason = res.Reason
	meta.Ticks = res.Ticks
	meta.Coverage = res.Coverage
	meta.Remaining = res.Energy.Remaining
	meta.Used = res.Energy.Used
	meta.Faults = len(res.Faults)
	meta.Metrics = res.Metrics

	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := s.writeMetadata(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "ticks.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(tickHeader); err != nil {
		return "", err
	}
	for _, rec := range res.Records {
		if err := w.Write(tickRow(rec)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// Annotate rewrites the metadata of an existing run.
func (s *Store) Annotate(meta RunMetadata) error {
	if _, err := s.Load(meta.ID); err != nil {
		return err
	}
	return s.writeMetadata(meta)
}

func (s *Store) writeMetadata(meta RunMetadata) error {
	f, err := os.Create(filepath.Join(s.Dir(meta.ID), "metadata.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func tickRow(rec mission.TickRecord) []string {
	faults := make([]string, len(rec.Faults))
	for i, f := range rec.Faults {
		faults[i] = f.String()
	}
	return []string{
		strconv.FormatUint(rec.Tick, 10),
		ff(rec.Pose.X), ff(rec.Pose.Y), ff(rec.Pose.Z), ff(rec.Pose.Yaw),
		rec.Phase.String(),
		rec.Policy.String(),
		rec.Action.Kind.String(),
		ff(rec.Action.Turn), ff(rec.Action.Distance),
		strconv.FormatBool(rec.Executed),
		ff(rec.Predicted), ff(rec.Cost), ff(rec.Remaining), ff(rec.Coverage), ff(rec.Hazard),
		strconv.Itoa(rec.Candidates), strconv.Itoa(rec.Rejected),
		ff(rec.Ceiling),
		strings.Join(faults, ";"),
	}
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}
	return &meta, nil
}

// TickRow is the subset of a stored tick needed to plot or summarise a run.
type TickRow struct {
	Tick      uint64   `json:"tick"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Phase     string   `json:"phase"`
	Action    string   `json:"action"`
	Cost      float64  `json:"cost"`
	Remaining float64  `json:"remaining"`
	Coverage  float64  `json:"coverage"`
	Hazard    float64  `json:"hazard"`
	Faults    []string `json:"faults,omitempty"`
}

// LoadTicks reads ticks.csv back. Malformed rows are skipped.
func (s *Store) LoadTicks(runID string) ([]TickRow, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), "ticks.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []TickRow{}, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	num := func(rec []string, name string) (float64, error) {
		return strconv.ParseFloat(rec[col[name]], 64)
	}

	rows := make([]TickRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			continue
		}
		tick, err := strconv.ParseUint(rec[col["tick"]], 10, 64)
		if err != nil {
			continue
		}
		row := TickRow{Tick: tick, Phase: rec[col["phase"]], Action: rec[col["action"]]}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"x", &row.X}, {"y", &row.Y}, {"cost", &row.Cost},
			{"remaining", &row.Remaining}, {"coverage", &row.Coverage}, {"hazard", &row.Hazard},
		}
		ok := true
		for _, f := range fields {
			v, err := num(rec, f.name)
			if err != nil {
				ok = false
				break
			}
			*f.dst = v
		}
		if !ok {
			continue
		}
		if faults := rec[col["faults"]]; faults != "" {
			row.Faults = strings.Split(faults, ";")
		}
		rows = append(rows, row)
	}
	return rows, nil
}
