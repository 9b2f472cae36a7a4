// Package report writes the final account snapshot of a run.
package report

import (
	"context"
	"strconv"

	"github.com/example/payments-engine/internal/amount"
	"github.com/example/payments-engine/internal/ledger"
)

// Header is the column order shared by every sink.
var Header = []string{"client", "available", "held", "total", "locked"}

// Sink receives the accounts of a finished run, ordered by client id.
type Sink interface {
	Write(ctx context.Context, accounts []ledger.Account) error
}

// Row is one account as it is presented. Decimal fields are normalized.
type Row struct {
	Client    ledger.ClientID
	Available amount.Amount
	Held      amount.Amount
	Total     amount.Amount
	Locked    bool
}

// NewRow builds the presented form of acct.
func NewRow(acct ledger.Account) Row {
	return Row{
		Client:    acct.Client,
		Available: acct.Available.Normalize(),
		Held:      acct.Held.Normalize(),
		Total:     acct.Total().Normalize(),
		Locked:    acct.Locked,
	}
}

// Strings renders r in Header order.
func (r Row) Strings() []string {
	return []string{
		strconv.FormatUint(uint64(r.Client), 10),
		r.Available.String(),
		r.Held.String(),
		r.Total.String(),
		strconv.FormatBool(r.Locked),
	}
}

func rows(accounts []ledger.Account) []Row {
	out := make([]Row, len(accounts))
	for i, acct := range accounts {
		out[i] = NewRow(acct)
	}
	return out
}
