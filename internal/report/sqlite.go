package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/payments-engine/internal/ledger"
)

// SQLiteSink stores the snapshot in a SQLite table, one row per account,
// keyed by run id so repeated runs against one file do not collide.
type SQLiteSink struct {
	db      *sql.DB
	table   string
	runID   uuid.UUID
	timeout time.Duration
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

// NewSQLiteSink creates a sink writing into table of db.
func NewSQLiteSink(db *sql.DB, table string, runID uuid.UUID, timeout time.Duration) *SQLiteSink {
	return &SQLiteSink{db: db, table: table, runID: runID, timeout: timeout}
}

func (s *SQLiteSink) Write(ctx context.Context, accounts []ledger.Account) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(queryCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(queryCtx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			client INTEGER NOT NULL,
			available TEXT NOT NULL,
			held TEXT NOT NULL,
			total TEXT NOT NULL,
			locked BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (run_id, client)
		)
	`, s.table))
	if err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}

	stmt, err := tx.PrepareContext(queryCtx, fmt.Sprintf(`
		INSERT INTO %s (run_id, client, available, held, total, locked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, row := range rows(accounts) {
		_, err = stmt.ExecContext(queryCtx,
			s.runID.String(), int64(row.Client), row.Available.String(), row.Held.String(),
			row.Total.String(), row.Locked, now)
		if err != nil {
			return fmt.Errorf("failed to insert client %d: %w", row.Client, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
