// Package db opens the embedded DuckDB database used for attribute
// queries over imported layers. Imported GeoJSON files are registered as
// spatial tables via ST_Read so they can be queried through the API.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/marcboeker/go-duckdb"
)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string
}

// Open creates (or reopens) the database under <dataDir>/duckdb and loads
// the spatial and parquet extensions.
func Open(cfg Config) (*sql.DB, error) {
	duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
	if err := os.MkdirAll(duckdbDir, 0755); err != nil {
		return nil, fmt.Errorf("creating duckdb directory: %w", err)
	}

	dbPath := filepath.Join(duckdbDir, cfg.DBName+".duckdb")
	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, err
	}

	for _, ext := range []string{"spatial", "parquet"} {
		if _, err := conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			// Extensions might already be installed, continue
		}
	}
	return conn, nil
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RegisterLayerTable materializes a GeoJSON file as a table named after
// the layer, replacing any previous version.
func RegisterLayerTable(conn *sql.DB, table, geojsonPath string) error {
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	_, err := conn.Exec(
		fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM ST_Read(?)", table),
		geojsonPath,
	)
	return err
}

// DropLayerTable removes a layer's table if it exists.
func DropLayerTable(conn *sql.DB, table string) error {
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	_, err := conn.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	return err
}
