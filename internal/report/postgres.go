package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/payments-engine/internal/amount"
	"github.com/example/payments-engine/internal/ledger"
)

// Pool is the subset of *pgxpool.Pool used by PostgresSink.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresSink bulk-loads the snapshot into a Postgres table with COPY.
type PostgresSink struct {
	Pool    Pool
	table   string
	runID   uuid.UUID
	timeout time.Duration
}

// ConnectPostgres creates a pool for databaseURL and checks it is reachable.
func ConnectPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewPostgresSink creates a sink writing into table.
func NewPostgresSink(pool Pool, table string, runID uuid.UUID, timeout time.Duration) *PostgresSink {
	return &PostgresSink{Pool: pool, table: table, runID: runID, timeout: timeout}
}

var snapshotColumns = []string{"run_id", "client", "available", "held", "total", "locked", "created_at"}

func (s *PostgresSink) Write(ctx context.Context, accounts []ledger.Account) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.Pool.Exec(queryCtx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id UUID NOT NULL,
			client INTEGER NOT NULL,
			available NUMERIC NOT NULL,
			held NUMERIC NOT NULL,
			total NUMERIC NOT NULL,
			locked BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, client)
		)
	`, pgx.Identifier{s.table}.Sanitize()))
	if err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}

	now := time.Now().UTC()
	src := make([][]any, 0, len(accounts))
	for _, row := range rows(accounts) {
		src = append(src, []any{
			s.runID,
			int32(row.Client),
			numeric(row.Available),
			numeric(row.Held),
			numeric(row.Total),
			row.Locked,
			now,
		})
	}

	n, err := s.Pool.CopyFrom(queryCtx, pgx.Identifier{s.table}, snapshotColumns, pgx.CopyFromRows(src))
	if err != nil {
		return fmt.Errorf("failed to copy snapshot rows: %w", err)
	}
	if n != int64(len(src)) {
		return fmt.Errorf("copied %d of %d snapshot rows", n, len(src))
	}
	return nil
}

// numeric converts a to the pgx NUMERIC representation without going
// through floating point.
func numeric(a amount.Amount) pgtype.Numeric {
	d := a.Decimal()
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
