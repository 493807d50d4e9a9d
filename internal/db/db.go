package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	dataDir       = ".projectdesk"
	defaultDBName = "backend.db"
)

type Config struct {
	// Workspace is the directory holding the .projectdesk data dir. Empty means ".".
	Workspace string
	// File overrides the database path entirely.
	File string
}

// Path returns the database file for cfg.
func Path(cfg Config) string {
	if cfg.File != "" {
		return cfg.File
	}
	ws := cfg.Workspace
	if ws == "" {
		ws = "."
	}
	return filepath.Join(ws, dataDir, defaultDBName)
}

// Open opens the SQLite database with foreign keys on, creating its directory.
func Open(cfg Config) (*sql.DB, error) {
	path := Path(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under the dev server.
	conn.SetMaxOpenConns(1)
	return conn, nil
}
