// Package pipeline feeds records from a source into the ledger engine.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/payments-engine/internal/ingest"
	"github.com/example/payments-engine/internal/ledger"
)

// Source yields records in input order. It returns io.EOF at the end and a
// *ingest.RowError for a row that should be skipped.
type Source interface {
	Next() (ledger.Record, error)
}

// Processor applies a single record.
type Processor interface {
	Process(rec ledger.Record) (ledger.Outcome, error)
}

// Summary counts what happened to the rows of a run.
type Summary struct {
	Rows        int
	Applied     int
	NoOps       int
	ParseErrors int
	Rejected    int
}

// Run drains src into proc strictly in order. Unparseable rows and rejected
// records are logged and counted; only a failing source stops the run.
func Run(src Source, proc Processor, logger *slog.Logger) (Summary, error) {
	var sum Summary

	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}

		var rowErr *ingest.RowError
		if errors.As(err, &rowErr) {
			sum.Rows++
			sum.ParseErrors++
			logger.Warn("skipping unparseable row", "line", rowErr.Line, "error", rowErr.Err)
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("failed to read input: %w", err)
		}

		sum.Rows++
		outcome, err := proc.Process(rec)
		if err != nil {
			sum.Rejected++
			logger.Warn("record rejected",
				"type", rec.Kind.String(),
				"client", rec.Client,
				"tx", rec.Tx,
				"error", err,
			)
			continue
		}

		switch outcome {
		case ledger.NoOp:
			sum.NoOps++
			logger.Debug("record had no effect", "type", rec.Kind.String(), "client", rec.Client, "tx", rec.Tx)
		default:
			sum.Applied++
		}
	}
}
