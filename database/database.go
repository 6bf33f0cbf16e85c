package database

import (
	"database/sql"
	"fmt"
	"time"

	"monumentfinder/logging"
	"monumentfinder/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Names are not unique: the same monument may be registered from several photographs.
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS monuments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		latitude REAL DEFAULT 0,
		longitude REAL DEFAULT 0,
		altitude REAL DEFAULT 0,
		direction REAL DEFAULT 0,
		created_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_monument_name ON monuments(name);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create monuments table: %w", err)
	}

	logging.DebugLog("Catalog database ready: %s", dbPath)
	return db, nil
}

// OpenDatabase opens an existing database connection
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// StoreMonument appends a catalog row and returns its id
func StoreMonument(db *sql.DB, info types.MonumentInfo) (int64, error) {
	now := time.Now().Format(time.RFC3339)

	stmt, err := db.Prepare(`
		INSERT INTO monuments (
			name, path, latitude, longitude, altitude, direction, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("cannot prepare statement for %s: %w", info.Name, err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(
		info.Name,
		info.Path,
		info.Location.Latitude,
		info.Location.Longitude,
		info.Location.Altitude,
		info.Location.Direction,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("cannot insert monument %s: %w", info.Name, err)
	}

	return res.LastInsertId()
}

// ListMonuments returns every catalog row in insertion order
func ListMonuments(db *sql.DB) ([]types.MonumentInfo, error) {
	rows, err := db.Query(`SELECT id, name, path, latitude, longitude, altitude, direction, created_at
		FROM monuments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var monuments []types.MonumentInfo
	for rows.Next() {
		var m types.MonumentInfo
		var createdAt sql.NullString
		err := rows.Scan(&m.ID, &m.Name, &m.Path,
			&m.Location.Latitude, &m.Location.Longitude, &m.Location.Altitude, &m.Location.Direction,
			&createdAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		m.CreatedAt = createdAt.String
		monuments = append(monuments, m)
	}
	return monuments, rows.Err()
}

// CatalogStats contains statistics about the stored catalog
type CatalogStats struct {
	TotalEntries int
	UniqueNames  int
	Geolocated   int
}

// GetCatalogStats retrieves statistics about stored monuments
func GetCatalogStats(db *sql.DB) (*CatalogStats, error) {
	var stats CatalogStats

	err := db.QueryRow("SELECT COUNT(*) FROM monuments").Scan(&stats.TotalEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to count monuments: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(DISTINCT name) FROM monuments").Scan(&stats.UniqueNames)
	if err != nil {
		return nil, fmt.Errorf("failed to count unique names: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM monuments WHERE latitude != 0 OR longitude != 0").Scan(&stats.Geolocated)
	if err != nil {
		return nil, fmt.Errorf("failed to count geolocated monuments: %w", err)
	}

	return &stats, nil
}
