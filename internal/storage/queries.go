package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"teikipass/internal/dataset"
)

// Metadata keys.
const (
	keyVersion    = "version"
	keySource     = "source"
	keyImportedAt = "imported_at"
)

// GetMetadata retrieves a value from the dataset_metadata table.
func (db *DB) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM dataset_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetMetadata stores a key-value pair in the dataset_metadata table.
func (db *DB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO dataset_metadata (key, value) VALUES (?, ?)`,
		key, value)
	return err
}

// HasData returns true if a dataset has been imported.
func (db *DB) HasData(ctx context.Context) bool {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`).Scan(&count)
	return err == nil && count > 0
}

// Validators returns the HTTP cache validators stored with the last import, keyed by document name.
func (db *DB) Validators(ctx context.Context) (map[string]dataset.Validators, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT key, value FROM dataset_metadata WHERE key LIKE '%:etag' OR key LIKE '%:last_modified'`)
	if err != nil {
		return nil, fmt.Errorf("validators query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]dataset.Validators)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan validator: %w", err)
		}
		i := strings.LastIndex(key, ":")
		doc, kind := key[:i], key[i+1:]
		v := out[doc]
		if kind == "etag" {
			v.ETag = value
		} else {
			v.LastModified = value
		}
		out[doc] = v
	}
	return out, rows.Err()
}

// LoadDataset reassembles the three documents from the database.
func (db *DB) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	ds := &dataset.Dataset{Source: "db"}

	if err := db.loadDistances(ctx, &ds.Distances); err != nil {
		return nil, err
	}
	if err := db.loadMeta(ctx, &ds.Meta); err != nil {
		return nil, err
	}
	if err := db.loadFares(ctx, &ds.Fares); err != nil {
		return nil, err
	}

	version, err := db.GetMetadata(ctx, keyVersion)
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version == "" {
		version = dataset.ComputeVersion(ds)
	}
	ds.Version = version
	return ds, nil
}

func (db *DB) loadDistances(ctx context.Context, doc *dataset.DistanceDoc) error {
	rows, err := db.QueryContext(ctx, `SELECT name FROM stations ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("stations query: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan station: %w", err)
		}
		doc.Stations = append(doc.Stations, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT from_name, to_name, km FROM edges ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("edges query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e dataset.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Km); err != nil {
			return fmt.Errorf("scan edge: %w", err)
		}
		doc.Edges = append(doc.Edges, e)
	}
	return rows.Err()
}

func (db *DB) loadMeta(ctx context.Context, meta *dataset.StationMeta) error {
	rows, err := db.QueryContext(ctx, `SELECT line_id, name FROM lines ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("lines query: %w", err)
	}
	for rows.Next() {
		var l dataset.Line
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			rows.Close()
			return fmt.Errorf("scan line: %w", err)
		}
		meta.Lines = append(meta.Lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT seq, name FROM station_meta ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("station meta query: %w", err)
	}
	bySeq := make(map[int64]int)
	for rows.Next() {
		var seq int64
		var s dataset.StationInfo
		if err := rows.Scan(&seq, &s.Name); err != nil {
			rows.Close()
			return fmt.Errorf("scan station meta: %w", err)
		}
		s.Orders = make(map[string]int)
		bySeq[seq] = len(meta.Stations)
		meta.Stations = append(meta.Stations, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT meta_seq, line_id FROM station_lines ORDER BY meta_seq, position`)
	if err != nil {
		return fmt.Errorf("station lines query: %w", err)
	}
	for rows.Next() {
		var seq int64
		var lineID string
		if err := rows.Scan(&seq, &lineID); err != nil {
			rows.Close()
			return fmt.Errorf("scan station line: %w", err)
		}
		if i, ok := bySeq[seq]; ok {
			meta.Stations[i].Lines = append(meta.Stations[i].Lines, lineID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT meta_seq, line_id, ord FROM station_orders`)
	if err != nil {
		return fmt.Errorf("station orders query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var seq int64
		var lineID string
		var ord int
		if err := rows.Scan(&seq, &lineID, &ord); err != nil {
			return fmt.Errorf("scan station order: %w", err)
		}
		if i, ok := bySeq[seq]; ok {
			meta.Stations[i].Orders[lineID] = ord
		}
	}
	return rows.Err()
}

func (db *DB) loadFares(ctx context.Context, fares *dataset.FareDoc) error {
	rows, err := db.QueryContext(ctx, `SELECT zone, max_km FROM fare_zones ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("fare zones query: %w", err)
	}
	for rows.Next() {
		var z dataset.Zone
		var maxKm sql.NullFloat64
		if err := rows.Scan(&z.Zone, &maxKm); err != nil {
			rows.Close()
			return fmt.Errorf("scan fare zone: %w", err)
		}
		if maxKm.Valid {
			v := maxKm.Float64
			z.MaxKm = &v
		}
		fares.DistanceZones = append(fares.DistanceZones, z)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT zone, yen FROM regular_fares WHERE category = 'adult'`)
	if err != nil {
		return fmt.Errorf("regular fares query: %w", err)
	}
	fares.RegularFare.Adult = make(map[string]int)
	for rows.Next() {
		var zone string
		var yen int
		if err := rows.Scan(&zone, &yen); err != nil {
			rows.Close()
			return fmt.Errorf("scan regular fare: %w", err)
		}
		fares.RegularFare.Adult[zone] = yen
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT term_months, zone, yen FROM commuter_fares`)
	if err != nil {
		return fmt.Errorf("commuter fares query: %w", err)
	}
	defer rows.Close()
	fares.CommuterPass = make(map[string]map[string]int)
	for rows.Next() {
		var term, zone string
		var yen int
		if err := rows.Scan(&term, &zone, &yen); err != nil {
			return fmt.Errorf("scan commuter fare: %w", err)
		}
		if fares.CommuterPass[term] == nil {
			fares.CommuterPass[term] = make(map[string]int)
		}
		fares.CommuterPass[term][zone] = yen
	}
	return rows.Err()
}
