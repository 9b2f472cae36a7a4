// Package ledger applies deposit, withdrawal and dispute-family records to
// per-client accounts.
//
// An Engine owns a TransactionStore and an AccountStore for the length of one
// run. Records must be fed to Process in input order: the same records in a
// different order can legitimately give different balances. Every rule checks
// its preconditions before touching state, so a rejected record leaves both
// stores as they were.
package ledger

import "github.com/example/payments-engine/internal/amount"

// Outcome says what a successfully processed record did.
type Outcome uint8

const (
	// Applied means the record changed balances or transaction state.
	Applied Outcome = iota + 1
	// NoOp means the record passed every check but the rules called for no
	// change, e.g. resolving a transaction that is not under dispute.
	NoOp
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// Engine is the single owner of the ledger state. It is not safe for
// concurrent use.
type Engine struct {
	txs      *TransactionStore
	accounts *AccountStore
}

// NewEngine creates an engine with empty stores.
func NewEngine() *Engine {
	return &Engine{
		txs:      NewTransactionStore(),
		accounts: NewAccountStore(),
	}
}

// Process applies one record. Failures are returned as *Error and never
// abort the run; the caller decides whether to log and continue.
func (e *Engine) Process(rec Record) (Outcome, error) {
	switch rec.Kind {
	case Deposit:
		return e.deposit(rec)
	case Withdrawal:
		return e.withdraw(rec)
	case Dispute:
		return e.dispute(rec)
	case Resolve:
		return e.resolve(rec)
	case Chargeback:
		return e.chargeback(rec)
	default:
		return 0, newError(ErrNotStorable, rec)
	}
}

// deposit and withdraw check Exists first so a duplicate never creates an
// account. Balances move only after InsertIfAbsent succeeds.
func (e *Engine) deposit(rec Record) (Outcome, error) {
	if e.txs.Exists(rec.Tx) {
		return 0, newError(ErrDuplicateTransaction, rec)
	}

	acct := e.accounts.GetOrCreate(rec.Client)
	if acct.Locked {
		return 0, newError(ErrAccountLocked, rec)
	}

	tx, err := NewStoredTransaction(rec)
	if err != nil {
		return 0, err
	}

	if !e.txs.InsertIfAbsent(tx) {
		return 0, newError(ErrDuplicateTransaction, rec)
	}
	acct.Available = acct.Available.Add(tx.Amount)
	return Applied, nil
}

func (e *Engine) withdraw(rec Record) (Outcome, error) {
	if e.txs.Exists(rec.Tx) {
		return 0, newError(ErrDuplicateTransaction, rec)
	}

	acct := e.accounts.GetOrCreate(rec.Client)
	if acct.Locked {
		return 0, newError(ErrAccountLocked, rec)
	}

	tx, err := NewStoredTransaction(rec)
	if err != nil {
		return 0, err
	}

	if acct.Available.LessThan(tx.Amount) {
		return 0, newError(ErrInsufficientFunds, rec)
	}

	if !e.txs.InsertIfAbsent(tx) {
		return 0, newError(ErrDuplicateTransaction, rec)
	}
	acct.Available = acct.Available.Sub(tx.Amount)
	return Applied, nil
}

func (e *Engine) dispute(rec Record) (Outcome, error) {
	tx, err := e.lookup(rec, true)
	if err != nil {
		return 0, err
	}

	if tx.Kind != Deposit || !CanTransition(tx.Status, StatusDisputed) {
		return NoOp, nil
	}

	if err := e.txs.SetStatus(tx.Tx, StatusDisputed); err != nil {
		return 0, err
	}

	acct := e.accounts.GetOrCreate(tx.Client)
	acct.Available = acct.Available.Sub(tx.Amount)
	acct.Held = acct.Held.Add(tx.Amount)
	return Applied, nil
}

func (e *Engine) resolve(rec Record) (Outcome, error) {
	tx, err := e.lookup(rec, false)
	if err != nil {
		return 0, err
	}

	if !CanTransition(tx.Status, StatusResolved) {
		return NoOp, nil
	}

	if err := e.txs.SetStatus(tx.Tx, StatusResolved); err != nil {
		return 0, err
	}

	acct := e.accounts.GetOrCreate(tx.Client)
	acct.Held = acct.Held.Sub(tx.Amount)
	acct.Available = acct.Available.Add(tx.Amount)
	return Applied, nil
}

func (e *Engine) chargeback(rec Record) (Outcome, error) {
	tx, err := e.lookup(rec, true)
	if err != nil {
		return 0, err
	}

	if tx.Kind != Deposit || !CanTransition(tx.Status, StatusChargedback) {
		return NoOp, nil
	}

	if err := e.txs.SetStatus(tx.Tx, StatusChargedback); err != nil {
		return 0, err
	}

	acct := e.accounts.GetOrCreate(tx.Client)
	acct.Held = acct.Held.Sub(tx.Amount)
	acct.Locked = true
	return Applied, nil
}

// lookup finds the transaction a dispute-family record refers to. With
// checkClient set the record's client must own the transaction.
func (e *Engine) lookup(rec Record, checkClient bool) (StoredTransaction, error) {
	tx, ok := e.txs.Get(rec.Tx)
	if !ok {
		return StoredTransaction{}, newError(ErrMissingTransaction, rec)
	}
	if checkClient && tx.Client != rec.Client {
		return StoredTransaction{}, newError(ErrInvalidClientID, rec)
	}
	return tx, nil
}

// Account returns a copy of the client's account, if it exists.
func (e *Engine) Account(client ClientID) (Account, bool) {
	return e.accounts.Get(client)
}

// Transaction returns a copy of a stored transaction, if it exists.
func (e *Engine) Transaction(id TxID) (StoredTransaction, bool) {
	return e.txs.Get(id)
}

// Accounts returns copies of every account ordered by client id.
func (e *Engine) Accounts() []Account {
	return e.accounts.Snapshot()
}

// AccountCount returns the number of client accounts.
func (e *Engine) AccountCount() int {
	return e.accounts.Len()
}

// TransactionCount returns the number of stored deposits and withdrawals.
func (e *Engine) TransactionCount() int {
	return e.txs.Len()
}

// heldByClient sums the amounts of currently disputed transactions per client.
func (e *Engine) heldByClient() map[ClientID]amount.Amount {
	held := make(map[ClientID]amount.Amount)
	e.txs.Each(func(tx StoredTransaction) {
		if tx.Status == StatusDisputed {
			held[tx.Client] = held[tx.Client].Add(tx.Amount)
		}
	})
	return held
}
