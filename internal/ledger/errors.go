package ledger

import (
	"errors"
	"fmt"
)

// Failure classes returned by the engine. Match them with errors.Is; use
// errors.As with *Error to get the record the failure was raised for.
var (
	ErrInvalidClientID      = errors.New("client id does not match transaction")
	ErrInsufficientFunds    = errors.New("insufficient available funds")
	ErrAccountLocked        = errors.New("account locked")
	ErrMissingAmount        = errors.New("missing amount")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrNotStorable          = errors.New("not a storable transaction")
	ErrMissingTransaction   = errors.New("transaction not found")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

// Error is a per-record ledger failure.
type Error struct {
	Err    error
	Kind   Kind
	Client ClientID
	Tx     TxID
}

func newError(err error, rec Record) *Error {
	return &Error{Err: err, Kind: rec.Kind, Client: rec.Client, Tx: rec.Tx}
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotStorable):
		return fmt.Sprintf("%s is not a storable transaction (tx %d)", e.Kind, e.Tx)
	case errors.Is(e.Err, ErrMissingTransaction):
		return fmt.Sprintf("operation on tx %d not possible: no stored transaction with that id", e.Tx)
	default:
		return fmt.Sprintf("%s tx %d client %d: %v", e.Kind, e.Tx, e.Client, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
