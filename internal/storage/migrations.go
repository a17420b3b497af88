package storage

import "fmt"

// migrate creates the dataset schema if it doesn't exist.
func (db *DB) migrate() error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	db.logger.Info("database migrations applied")
	return nil
}

var migrations = []string{
	// Stations, in distance document order
	`CREATE TABLE IF NOT EXISTS stations (
		seq  INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	// Distance edges, in document order (later rows win on duplicate pairs)
	`CREATE TABLE IF NOT EXISTS edges (
		seq       INTEGER PRIMARY KEY,
		from_name TEXT NOT NULL,
		to_name   TEXT NOT NULL,
		km        REAL NOT NULL CHECK (km > 0)
	)`,

	// Lines
	`CREATE TABLE IF NOT EXISTS lines (
		seq     INTEGER PRIMARY KEY,
		line_id TEXT NOT NULL,
		name    TEXT NOT NULL DEFAULT ''
	)`,

	// Station metadata entries
	`CREATE TABLE IF NOT EXISTS station_meta (
		seq  INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	// Line membership as listed by the station (position keeps list order)
	`CREATE TABLE IF NOT EXISTS station_lines (
		meta_seq INTEGER NOT NULL REFERENCES station_meta(seq),
		position INTEGER NOT NULL,
		line_id  TEXT NOT NULL,
		PRIMARY KEY (meta_seq, position)
	)`,

	// Per-line order of a station
	`CREATE TABLE IF NOT EXISTS station_orders (
		meta_seq INTEGER NOT NULL REFERENCES station_meta(seq),
		line_id  TEXT NOT NULL,
		ord      INTEGER NOT NULL,
		PRIMARY KEY (meta_seq, line_id)
	)`,

	// Distance zones (max_km NULL = open-ended)
	`CREATE TABLE IF NOT EXISTS fare_zones (
		seq    INTEGER PRIMARY KEY,
		zone   INTEGER NOT NULL,
		max_km REAL
	)`,

	// One-way fares per category and zone
	`CREATE TABLE IF NOT EXISTS regular_fares (
		category TEXT NOT NULL,
		zone     TEXT NOT NULL,
		yen      INTEGER NOT NULL,
		PRIMARY KEY (category, zone)
	)`,

	// Commuter pass prices per term and zone
	`CREATE TABLE IF NOT EXISTS commuter_fares (
		term_months TEXT NOT NULL,
		zone        TEXT NOT NULL,
		yen         INTEGER NOT NULL,
		PRIMARY KEY (term_months, zone)
	)`,

	// Dataset metadata (version, source, imported_at, per-document etag/last_modified)
	`CREATE TABLE IF NOT EXISTS dataset_metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_station_orders_line ON station_orders(line_id, ord)`,
}
