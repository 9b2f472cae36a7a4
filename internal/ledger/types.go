package ledger

import (
	"fmt"

	"github.com/example/payments-engine/internal/amount"
)

// ClientID identifies a client account.
type ClientID uint16

// TxID identifies a deposit or withdrawal. It is unique across a run.
type TxID uint32

// Kind is the type of an input record.
type Kind uint8

const (
	Deposit Kind = iota + 1
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

var kindNames = map[Kind]string{
	Deposit:    "deposit",
	Withdrawal: "withdrawal",
	Dispute:    "dispute",
	Resolve:    "resolve",
	Chargeback: "chargeback",
}

// String returns the lowercase name used in input files.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Storable reports whether records of this kind create a stored transaction.
func (k Kind) Storable() bool {
	return k == Deposit || k == Withdrawal
}

// ParseKind maps a lowercase record type name to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Status tracks a stored transaction through the dispute lifecycle.
type Status uint8

const (
	StatusProcessed Status = iota
	StatusDisputed
	StatusResolved
	StatusChargedback
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusDisputed:
		return "disputed"
	case StatusResolved:
		return "resolved"
	case StatusChargedback:
		return "chargedback"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Record is one input row. Amount is set only for deposits and withdrawals.
type Record struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	Amount *amount.Amount
}

// StoredTransaction is a deposit or withdrawal kept for later disputes.
type StoredTransaction struct {
	Tx     TxID
	Client ClientID
	Kind   Kind
	Amount amount.Amount
	Status Status
}

// NewStoredTransaction builds the stored form of a deposit or withdrawal
// record. Dispute-family records are rejected with ErrNotStorable.
func NewStoredTransaction(rec Record) (StoredTransaction, error) {
	if !rec.Kind.Storable() {
		return StoredTransaction{}, newError(ErrNotStorable, rec)
	}
	if rec.Amount == nil {
		return StoredTransaction{}, newError(ErrMissingAmount, rec)
	}
	if rec.Amount.IsNegative() {
		return StoredTransaction{}, newError(ErrInvalidAmount, rec)
	}

	return StoredTransaction{
		Tx:     rec.Tx,
		Client: rec.Client,
		Kind:   rec.Kind,
		Amount: rec.Amount.Normalize(),
		Status: StatusProcessed,
	}, nil
}

// Account holds a client's balances. Total is derived, never stored.
type Account struct {
	Client    ClientID
	Available amount.Amount
	Held      amount.Amount
	Locked    bool
}

// Total returns Available + Held.
func (a Account) Total() amount.Amount {
	return a.Available.Add(a.Held)
}
