// Package ingest reads ledger records from CSV input.
//
// The first row is a header naming the columns type, client, tx and
// (optionally) amount, in any order. Fields are trimmed before parsing.
// A bad row produces a *RowError and reading continues with the next row;
// only a broken header or a failing underlying reader ends the stream early.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/payments-engine/internal/amount"
	"github.com/example/payments-engine/internal/ledger"
)

var (
	// ErrMissingColumn is returned by NewReader when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnknownKind marks a row whose type is not a known record kind.
	ErrUnknownKind = errors.New("unknown record type")
	// ErrMalformedField marks a row with an unparseable client or tx field.
	ErrMalformedField = errors.New("malformed field")
)

// RowError reports a row that could not be turned into a record.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type columns struct {
	kind, client, tx, amount int
}

// Reader yields records from a CSV source one at a time.
type Reader struct {
	csv  *csv.Reader
	cols columns
	rows int
}

// NewReader reads the header from r. An empty input yields a reader whose
// first Next returns io.EOF.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	rd := &Reader{csv: cr, cols: columns{kind: -1, client: -1, tx: -1, amount: -1}}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		rd.csv = nil
		return rd, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "type":
			rd.cols.kind = i
		case "client":
			rd.cols.client = i
		case "tx":
			rd.cols.tx = i
		case "amount":
			rd.cols.amount = i
		}
	}

	var missing []string
	if rd.cols.kind < 0 {
		missing = append(missing, "type")
	}
	if rd.cols.client < 0 {
		missing = append(missing, "client")
	}
	if rd.cols.tx < 0 {
		missing = append(missing, "tx")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return rd, nil
}

// Next returns the next record. It returns io.EOF when the input is
// exhausted, a *RowError for a row that should be skipped, and any other
// error when the source itself failed.
func (r *Reader) Next() (ledger.Record, error) {
	if r.csv == nil {
		return ledger.Record{}, io.EOF
	}

	fields, err := r.csv.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			r.rows++
			return ledger.Record{}, &RowError{Line: perr.Line, Err: perr.Err}
		}
		return ledger.Record{}, err
	}
	r.rows++

	line, _ := r.csv.FieldPos(0)
	rec, err := r.parse(fields)
	if err != nil {
		return ledger.Record{}, &RowError{Line: line, Err: err}
	}
	return rec, nil
}

// Rows returns how many data rows have been read so far.
func (r *Reader) Rows() int {
	return r.rows
}

func (r *Reader) parse(fields []string) (ledger.Record, error) {
	field := func(i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	kindText := field(r.cols.kind)
	kind, ok := ledger.ParseKind(strings.ToLower(kindText))
	if !ok {
		return ledger.Record{}, fmt.Errorf("%w: %q", ErrUnknownKind, kindText)
	}

	client, err := strconv.ParseUint(field(r.cols.client), 10, 16)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: client %q", ErrMalformedField, field(r.cols.client))
	}

	tx, err := strconv.ParseUint(field(r.cols.tx), 10, 32)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: tx %q", ErrMalformedField, field(r.cols.tx))
	}

	rec := ledger.Record{
		Kind:   kind,
		Client: ledger.ClientID(client),
		Tx:     ledger.TxID(tx),
	}

	// Dispute-family rows carry no amount; anything there is ignored.
	if !kind.Storable() {
		return rec, nil
	}

	text := field(r.cols.amount)
	if text == "" {
		return ledger.Record{}, ledger.ErrMissingAmount
	}
	a, err := amount.ParseNonNegative(text)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: %s: %w", ledger.ErrInvalidAmount, kind, err)
	}
	rec.Amount = &a
	return rec, nil
}
