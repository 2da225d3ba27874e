package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., run #42).
// They are NOT exposed in CLI output but used internally for sorting and debugging.
func NextSequence(db *sql.DB, table string) (int, error) {
	return ReserveSequence(db, table, 1)
}

// ReserveSequence atomically advances the table's sequence by n and returns the first
// number of the reserved block.
func ReserveSequence(db *sql.DB, table string, n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("invalid sequence block size %d", n)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + ? WHERE id = 1", sequenceTable), n)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var last int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return last - n + 1, nil
}
