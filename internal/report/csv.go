package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/example/payments-engine/internal/ledger"
)

// CSVSink writes the snapshot as CSV with a header row.
type CSVSink struct {
	w io.Writer
}

// NewCSVSink creates a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

func (s *CSVSink) Write(_ context.Context, accounts []ledger.Account) error {
	cw := csv.NewWriter(s.w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows(accounts) {
		if err := cw.Write(row.Strings()); err != nil {
			return fmt.Errorf("failed to write client %d: %w", row.Client, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
