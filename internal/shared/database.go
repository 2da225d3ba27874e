package shared

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// ledgerParams are appended to every file DSN: the ledger relies on ON DELETE CASCADE, and the
// CLI and the API server may write to the same file.
var ledgerParams = url.Values{
	"_foreign_keys": {"on"},
	"_busy_timeout": {"5000"},
}

// ledgerDSN returns the sqlite3 DSN for path.
func ledgerDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	return path + "?" + ledgerParams.Encode()
}

// NewDatabase opens the SQLite ledger at path with foreign keys enforced.
//
// ":memory:" pins the pool to one connection so every query sees the same database; callers
// enable foreign keys on it themselves.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ledgerDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		ConfigureDatabase(db, 1, 1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase applies pool limits from [DatabaseConfig]; zero keeps the driver default.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}
