package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"teikipass/internal/dataset"
)

// SaveDataset replaces the stored dataset with ds. The entire operation runs
// in a single transaction so readers never see a half-imported network.
func (db *DB) SaveDataset(ctx context.Context, ds *dataset.Dataset, validators map[string]dataset.Validators) error {
	start := time.Now()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}
	if err := importDistances(ctx, tx, ds.Distances); err != nil {
		return err
	}
	if err := importMeta(ctx, tx, ds.Meta); err != nil {
		return err
	}
	if err := importFares(ctx, tx, ds.Fares); err != nil {
		return err
	}

	version := ds.Version
	if version == "" {
		version = dataset.ComputeVersion(ds)
	}
	meta := map[string]string{
		keyVersion:    version,
		keySource:     ds.Source,
		keyImportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for doc, v := range validators {
		if v.ETag != "" {
			meta[doc+":etag"] = v.ETag
		}
		if v.LastModified != "" {
			meta[doc+":last_modified"] = v.LastModified
		}
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO dataset_metadata (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	db.logger.Info("dataset import complete",
		"duration", time.Since(start).Round(time.Millisecond),
		"version", version,
		"stations", len(ds.Distances.Stations),
		"edges", len(ds.Distances.Edges),
		"lines", len(ds.Meta.Lines),
	)
	return nil
}

func clearTables(ctx context.Context, tx *sql.Tx) error {
	tables := []string{
		"station_orders", "station_lines", "station_meta", "lines",
		"edges", "stations", "fare_zones", "regular_fares", "commuter_fares",
		"dataset_metadata",
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", t)); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}

func importDistances(ctx context.Context, tx *sql.Tx, doc dataset.DistanceDoc) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO stations (seq, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare stations: %w", err)
	}
	defer stmt.Close()
	for i, name := range doc.Stations {
		if _, err := stmt.ExecContext(ctx, i, name); err != nil {
			return fmt.Errorf("insert station %s: %w", name, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (seq, from_name, to_name, km) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare edges: %w", err)
	}
	defer edgeStmt.Close()
	for i, e := range doc.Edges {
		if _, err := edgeStmt.ExecContext(ctx, i, e.From, e.To, e.Km); err != nil {
			return fmt.Errorf("insert edge %s-%s: %w", e.From, e.To, err)
		}
	}
	return nil
}

func importMeta(ctx context.Context, tx *sql.Tx, meta dataset.StationMeta) error {
	lineStmt, err := tx.PrepareContext(ctx, `INSERT INTO lines (seq, line_id, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare lines: %w", err)
	}
	defer lineStmt.Close()
	for i, l := range meta.Lines {
		if _, err := lineStmt.ExecContext(ctx, i, l.ID, l.Name); err != nil {
			return fmt.Errorf("insert line %s: %w", l.ID, err)
		}
	}

	stationStmt, err := tx.PrepareContext(ctx, `INSERT INTO station_meta (seq, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare station meta: %w", err)
	}
	defer stationStmt.Close()
	memberStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO station_lines (meta_seq, position, line_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare station lines: %w", err)
	}
	defer memberStmt.Close()
	orderStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO station_orders (meta_seq, line_id, ord) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare station orders: %w", err)
	}
	defer orderStmt.Close()

	for i, s := range meta.Stations {
		if _, err := stationStmt.ExecContext(ctx, i, s.Name); err != nil {
			return fmt.Errorf("insert station meta %s: %w", s.Name, err)
		}
		for pos, lineID := range s.Lines {
			if _, err := memberStmt.ExecContext(ctx, i, pos, lineID); err != nil {
				return fmt.Errorf("insert station line %s/%s: %w", s.Name, lineID, err)
			}
		}
		for lineID, ord := range s.Orders {
			if _, err := orderStmt.ExecContext(ctx, i, lineID, ord); err != nil {
				return fmt.Errorf("insert station order %s/%s: %w", s.Name, lineID, err)
			}
		}
	}
	return nil
}

func importFares(ctx context.Context, tx *sql.Tx, fares dataset.FareDoc) error {
	zoneStmt, err := tx.PrepareContext(ctx, `INSERT INTO fare_zones (seq, zone, max_km) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare fare zones: %w", err)
	}
	defer zoneStmt.Close()
	for i, z := range fares.DistanceZones {
		var maxKm sql.NullFloat64
		if z.MaxKm != nil {
			maxKm = sql.NullFloat64{Float64: *z.MaxKm, Valid: true}
		}
		if _, err := zoneStmt.ExecContext(ctx, i, z.Zone, maxKm); err != nil {
			return fmt.Errorf("insert fare zone %d: %w", z.Zone, err)
		}
	}

	regStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO regular_fares (category, zone, yen) VALUES ('adult', ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare regular fares: %w", err)
	}
	defer regStmt.Close()
	for zone, yen := range fares.RegularFare.Adult {
		if _, err := regStmt.ExecContext(ctx, zone, yen); err != nil {
			return fmt.Errorf("insert regular fare zone %s: %w", zone, err)
		}
	}

	passStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO commuter_fares (term_months, zone, yen) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare commuter fares: %w", err)
	}
	defer passStmt.Close()
	for term, byZone := range fares.CommuterPass {
		if _, err := strconv.Atoi(term); err != nil {
			return fmt.Errorf("commuter term %q is not a number", term)
		}
		for zone, yen := range byZone {
			if _, err := passStmt.ExecContext(ctx, term, zone, yen); err != nil {
				return fmt.Errorf("insert commuter fare %s/%s: %w", term, zone, err)
			}
		}
	}
	return nil
}
