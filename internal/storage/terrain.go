package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/lunarover/internal/terrain"
)

const schema = `
CREATE TABLE IF NOT EXISTS maps (
	map_id               TEXT PRIMARY KEY,
	run_id               TEXT,
	resolution           REAL NOT NULL,
	origin_x             REAL NOT NULL,
	origin_y             REAL NOT NULL,
	confidence_threshold REAL NOT NULL,
	hazard_threshold     REAL NOT NULL,
	min_row              INTEGER NOT NULL,
	min_col              INTEGER NOT NULL,
	max_row              INTEGER NOT NULL,
	max_col              INTEGER NOT NULL,
	version              INTEGER NOT NULL,
	coverage             REAL NOT NULL,
	created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cells (
	map_id            TEXT NOT NULL,
	cell_row          INTEGER NOT NULL,
	cell_col          INTEGER NOT NULL,
	elevation         REAL NOT NULL,
	confidence        REAL NOT NULL,
	hazard            INTEGER NOT NULL,
	hazard_confidence REAL NOT NULL,
	updated_tick      INTEGER NOT NULL,
	PRIMARY KEY (map_id, cell_row, cell_col),
	FOREIGN KEY (map_id) REFERENCES maps(map_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_maps_run ON maps(run_id);
`

// TerrainStore keeps terrain map snapshots in SQLite, one row per cell.
type TerrainStore struct {
	db *sql.DB
}

// MapInfo describes a stored map without its cells.
type MapInfo struct {
	ID        string
	RunID     string
	Version   uint64
	Coverage  float64
	Cells     int
	CreatedAt time.Time
}

// OpenTerrain opens (creating if needed) the database at path.
func OpenTerrain(path string) (*TerrainStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &TerrainStore{db: db}, nil
}

func (s *TerrainStore) Close() error {
	return s.db.Close()
}

// SaveMap stores snap under a new map ID tied to runID.
func (s *TerrainStore) SaveMap(runID string, snap terrain.Snapshot) (string, error) {
	id := uuid.New().String()
	cfg := snap.Config()
	b := cfg.Boundary

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO maps (map_id, run_id, resolution, origin_x, origin_y, confidence_threshold,
		  hazard_threshold, min_row, min_col, max_row, max_col, version, coverage, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, runID, cfg.Resolution, cfg.OriginX, cfg.OriginY, cfg.ConfidenceThreshold,
		cfg.HazardThreshold, b.MinRow, b.MinCol, b.MaxRow, b.MaxCol,
		int64(snap.Version()), snap.Coverage(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert map: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO cells (map_id, cell_row, cell_col, elevation, confidence, hazard, hazard_confidence, updated_tick)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare cells: %w", err)
	}
	defer stmt.Close()

	for _, rec := range snap.Records() {
		c := rec.Cell
		if _, err := stmt.Exec(id, rec.Key.Row, rec.Key.Col, c.Elevation, c.Confidence,
			int(c.Hazard), c.HazardConfidence, int64(c.UpdatedTick)); err != nil {
			return "", fmt.Errorf("insert cell %s: %w", rec.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LoadMap rebuilds the snapshot stored as mapID.
func (s *TerrainStore) LoadMap(mapID string) (terrain.Snapshot, error) {
	var (
		cfg     terrain.Config
		version int64
	)
	err := s.db.QueryRow(
		`SELECT resolution, origin_x, origin_y, confidence_threshold, hazard_threshold,
		        min_row, min_col, max_row, max_col, version
		 FROM maps WHERE map_id = ?`, mapID,
	).Scan(&cfg.Resolution, &cfg.OriginX, &cfg.OriginY, &cfg.ConfidenceThreshold, &cfg.HazardThreshold,
		&cfg.Boundary.MinRow, &cfg.Boundary.MinCol, &cfg.Boundary.MaxRow, &cfg.Boundary.MaxCol, &version)
	if err == sql.ErrNoRows {
		return terrain.Snapshot{}, fmt.Errorf("map %s not found", mapID)
	}
	if err != nil {
		return terrain.Snapshot{}, fmt.Errorf("query map: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT cell_row, cell_col, elevation, confidence, hazard, hazard_confidence, updated_tick
		 FROM cells WHERE map_id = ?`, mapID)
	if err != nil {
		return terrain.Snapshot{}, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	cells := make(map[terrain.Key]terrain.Cell)
	for rows.Next() {
		var (
			k      terrain.Key
			c      terrain.Cell
			hazard int
			tick   int64
		)
		if err := rows.Scan(&k.Row, &k.Col, &c.Elevation, &c.Confidence, &hazard, &c.HazardConfidence, &tick); err != nil {
			return terrain.Snapshot{}, fmt.Errorf("scan cell: %w", err)
		}
		c.Hazard = terrain.Flag(hazard)
		c.UpdatedTick = uint64(tick)
		cells[k] = c
	}
	if err := rows.Err(); err != nil {
		return terrain.Snapshot{}, fmt.Errorf("iterate cells: %w", err)
	}
	return terrain.NewSnapshot(cfg, cells, uint64(version)), nil
}

// Maps lists stored maps for runID, or every map when runID is empty.
func (s *TerrainStore) Maps(runID string) ([]MapInfo, error) {
	q := `SELECT m.map_id, COALESCE(m.run_id, ''), m.version, m.coverage, m.created_at,
	             (SELECT COUNT(*) FROM cells c WHERE c.map_id = m.map_id)
	      FROM maps m`
	args := []any{}
	if runID != "" {
		q += ` WHERE m.run_id = ?`
		args = append(args, runID)
	}
	q += ` ORDER BY m.created_at`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query maps: %w", err)
	}
	defer rows.Close()

	var out []MapInfo
	for rows.Next() {
		var (
			info    MapInfo
			version int64
			created string
		)
		if err := rows.Scan(&info.ID, &info.RunID, &version, &info.Coverage, &created, &info.Cells); err != nil {
			return nil, fmt.Errorf("scan map: %w", err)
		}
		info.Version = uint64(version)
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteMap removes a map and its cells.
func (s *TerrainStore) DeleteMap(mapID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cells WHERE map_id = ?`, mapID); err != nil {
		return fmt.Errorf("delete cells: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM maps WHERE map_id = ?`, mapID)
	if err != nil {
		return fmt.Errorf("delete map: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("map %s not found", mapID)
	}
	return tx.Commit()
}
