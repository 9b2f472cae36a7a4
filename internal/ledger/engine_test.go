package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/payments-engine/internal/amount"
)

func amt(s string) *amount.Amount {
	a := amount.MustParse(s)
	return &a
}

func deposit(client ClientID, tx TxID, a string) Record {
	return Record{Kind: Deposit, Client: client, Tx: tx, Amount: amt(a)}
}

func withdrawal(client ClientID, tx TxID, a string) Record {
	return Record{Kind: Withdrawal, Client: client, Tx: tx, Amount: amt(a)}
}

func dispute(client ClientID, tx TxID) Record {
	return Record{Kind: Dispute, Client: client, Tx: tx}
}

func resolve(client ClientID, tx TxID) Record {
	return Record{Kind: Resolve, Client: client, Tx: tx}
}

func chargeback(client ClientID, tx TxID) Record {
	return Record{Kind: Chargeback, Client: client, Tx: tx}
}

// mustApply processes rec and fails the test unless it returns want.
func mustApply(t *testing.T, e *Engine, rec Record, want Outcome) {
	t.Helper()
	got, err := e.Process(rec)
	require.NoError(t, err, "%s tx %d", rec.Kind, rec.Tx)
	require.Equal(t, want, got, "%s tx %d", rec.Kind, rec.Tx)
}

func assertBalances(t *testing.T, e *Engine, client ClientID, available, held string, locked bool) {
	t.Helper()
	acct, ok := e.Account(client)
	require.True(t, ok, "account %d should exist", client)
	assert.Equal(t, amount.MustParse(available).String(), acct.Available.String(), "available")
	assert.Equal(t, amount.MustParse(held).String(), acct.Held.String(), "held")
	assert.Equal(t, acct.Available.Add(acct.Held).String(), acct.Total().String(), "total")
	assert.Equal(t, locked, acct.Locked, "locked")
}

func assertStatus(t *testing.T, e *Engine, id TxID, want Status) {
	t.Helper()
	tx, ok := e.Transaction(id)
	require.True(t, ok)
	assert.Equal(t, want, tx.Status)
}

func TestDepositAndInsufficientWithdrawal(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "100.0"), Applied)
	assertBalances(t, e, 1, "100", "0", false)

	_, err := e.Process(withdrawal(1, 2, "200.0"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assertBalances(t, e, 1, "100", "0", false)

	_, stored := e.Transaction(2)
	assert.False(t, stored, "rejected withdrawal must not be stored")
}

func TestWithdrawalOfEntireBalance(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "1.5"), Applied)
	mustApply(t, e, withdrawal(1, 2, "1.5000"), Applied)
	assertBalances(t, e, 1, "0", "0", false)

	_, err := e.Process(withdrawal(1, 3, "0.0001"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestDisputeLifecycle(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "100.0"), Applied)
	mustApply(t, e, dispute(1, 1), Applied)
	assertBalances(t, e, 1, "0", "100", false)
	assertStatus(t, e, 1, StatusDisputed)

	mustApply(t, e, dispute(1, 1), NoOp)
	assertBalances(t, e, 1, "0", "100", false)

	mustApply(t, e, resolve(1, 1), Applied)
	assertBalances(t, e, 1, "100", "0", false)
	assertStatus(t, e, 1, StatusResolved)

	_, err := e.Process(dispute(1, 2))
	require.ErrorIs(t, err, ErrMissingTransaction)
	var lerr *Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, TxID(2), lerr.Tx)

	// A resolved transaction may be disputed again.
	mustApply(t, e, dispute(1, 1), Applied)
	assertBalances(t, e, 1, "0", "100", false)

	mustApply(t, e, resolve(1, 1), Applied)
	mustApply(t, e, resolve(1, 1), NoOp)
	assertBalances(t, e, 1, "100", "0", false)
}

func TestChargebackLocksAccount(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "100.0"), Applied)
	mustApply(t, e, dispute(1, 1), Applied)
	mustApply(t, e, chargeback(1, 1), Applied)
	assertBalances(t, e, 1, "0", "0", true)
	assertStatus(t, e, 1, StatusChargedback)

	_, err := e.Process(deposit(1, 2, "100.0"))
	require.ErrorIs(t, err, ErrAccountLocked)
	assertBalances(t, e, 1, "0", "0", true)

	_, err = e.Process(withdrawal(1, 3, "0"))
	require.ErrorIs(t, err, ErrAccountLocked)

	// Charged back transactions are terminal.
	mustApply(t, e, dispute(1, 1), NoOp)
	mustApply(t, e, resolve(1, 1), NoOp)
	mustApply(t, e, chargeback(1, 1), NoOp)
	assertBalances(t, e, 1, "0", "0", true)
}

func TestLockedAccountStaysLocked(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "10"), Applied)
	mustApply(t, e, deposit(1, 2, "5"), Applied)
	mustApply(t, e, dispute(1, 1), Applied)
	mustApply(t, e, chargeback(1, 1), Applied)

	// Disputes on other transactions still work on a locked account.
	mustApply(t, e, dispute(1, 2), Applied)
	mustApply(t, e, resolve(1, 2), Applied)
	assertBalances(t, e, 1, "5", "0", true)

	for i := TxID(10); i < 20; i++ {
		_, err := e.Process(deposit(1, i, "1"))
		require.ErrorIs(t, err, ErrAccountLocked)
	}
	assertBalances(t, e, 1, "5", "0", true)
}

func TestDuplicateTransactionLeavesStoresUnchanged(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "50"), Applied)
	mustApply(t, e, dispute(1, 1), Applied)

	before := e.Accounts()
	txBefore, _ := e.Transaction(1)

	for _, rec := range []Record{
		deposit(1, 1, "50"),
		deposit(2, 1, "75"),
		withdrawal(1, 1, "1"),
	} {
		_, err := e.Process(rec)
		require.ErrorIs(t, err, ErrDuplicateTransaction)
	}

	assert.Equal(t, before, e.Accounts())
	txAfter, _ := e.Transaction(1)
	assert.Equal(t, txBefore, txAfter)
	assert.Equal(t, 1, e.TransactionCount())
	assert.Equal(t, 1, e.AccountCount())
	_, created := e.Account(2)
	assert.False(t, created, "duplicate must not create an account")
}

func TestDisputeClientMismatch(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "20"), Applied)

	_, err := e.Process(dispute(2, 1))
	require.ErrorIs(t, err, ErrInvalidClientID)
	assertBalances(t, e, 1, "20", "0", false)
	assertStatus(t, e, 1, StatusProcessed)
	_, created := e.Account(2)
	assert.False(t, created)

	mustApply(t, e, dispute(1, 1), Applied)
	_, err = e.Process(chargeback(2, 1))
	require.ErrorIs(t, err, ErrInvalidClientID)
	assertBalances(t, e, 1, "0", "20", false)
	assertStatus(t, e, 1, StatusDisputed)
}

func TestDisputeOfWithdrawalIsNoOp(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "20"), Applied)
	mustApply(t, e, withdrawal(1, 2, "5"), Applied)
	mustApply(t, e, dispute(1, 2), NoOp)
	mustApply(t, e, chargeback(1, 2), NoOp)
	assertBalances(t, e, 1, "15", "0", false)
	assertStatus(t, e, 2, StatusProcessed)
}

func TestResolveAndChargebackRequireDispute(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "20"), Applied)
	mustApply(t, e, resolve(1, 1), NoOp)
	mustApply(t, e, chargeback(1, 1), NoOp)
	assertBalances(t, e, 1, "20", "0", false)

	_, err := e.Process(resolve(1, 99))
	assert.ErrorIs(t, err, ErrMissingTransaction)
	_, err = e.Process(chargeback(1, 99))
	assert.ErrorIs(t, err, ErrMissingTransaction)
}

func TestChargebackOfMissingTransactionDoesNotLock(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "20"), Applied)
	_, err := e.Process(chargeback(1, 7))
	require.ErrorIs(t, err, ErrMissingTransaction)
	assertBalances(t, e, 1, "20", "0", false)
}

func TestDisputeAfterWithdrawalCanMakeAvailableNegative(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "100"), Applied)
	mustApply(t, e, withdrawal(1, 2, "80"), Applied)
	mustApply(t, e, dispute(1, 1), Applied)
	assertBalances(t, e, 1, "-80", "100", false)

	mustApply(t, e, chargeback(1, 1), Applied)
	assertBalances(t, e, 1, "-80", "0", true)
}

func TestAmountValidation(t *testing.T) {
	e := NewEngine()

	_, err := e.Process(Record{Kind: Deposit, Client: 1, Tx: 1})
	assert.ErrorIs(t, err, ErrMissingAmount)

	_, err = e.Process(deposit(1, 2, "-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.Process(Record{Kind: Withdrawal, Client: 1, Tx: 3})
	assert.ErrorIs(t, err, ErrMissingAmount)

	assert.Equal(t, 0, e.TransactionCount())
	assertBalances(t, e, 1, "0", "0", false)

	// The ids of rejected records stay free.
	mustApply(t, e, deposit(1, 1, "3"), Applied)
}

func TestUnknownKindRejected(t *testing.T) {
	e := NewEngine()

	_, err := e.Process(Record{Kind: Kind(42), Client: 1, Tx: 1})
	assert.ErrorIs(t, err, ErrNotStorable)
	assert.Empty(t, e.Accounts())
}

func TestExactReversals(t *testing.T) {
	e := NewEngine()

	mustApply(t, e, deposit(1, 1, "0.1"), Applied)
	mustApply(t, e, deposit(1, 2, "0.2"), Applied)
	mustApply(t, e, deposit(1, 3, "1.00005"), Applied)

	for i := 0; i < 50; i++ {
		mustApply(t, e, dispute(1, 2), Applied)
		mustApply(t, e, resolve(1, 2), Applied)
	}
	assertBalances(t, e, 1, "1.3", "0", false)
}

func TestTotalInvariantHoldsAfterEveryRecord(t *testing.T) {
	e := NewEngine()

	records := []Record{
		deposit(1, 1, "10.1234"),
		deposit(2, 2, "3"),
		withdrawal(1, 3, "2.5"),
		dispute(1, 1),
		withdrawal(2, 4, "4"),
		dispute(2, 2),
		resolve(1, 1),
		dispute(1, 1),
		chargeback(1, 1),
		deposit(1, 5, "1"),
		chargeback(2, 2),
		resolve(2, 2),
	}

	for _, rec := range records {
		_, _ = e.Process(rec)
		for _, acct := range e.Accounts() {
			require.True(t, acct.Total().Decimal().Equal(acct.Available.Add(acct.Held).Decimal()))
			assert.False(t, acct.Held.IsNegative(), "held for client %d", acct.Client)
		}
	}

	assertBalances(t, e, 1, "-2.5", "0", true)
	assertBalances(t, e, 2, "0", "0", true)
}

func TestAccountsOrderedByClient(t *testing.T) {
	e := NewEngine()

	for _, c := range []ClientID{9, 3, 65535, 1} {
		mustApply(t, e, deposit(c, TxID(c), "1"), Applied)
	}

	var got []ClientID
	for _, acct := range e.Accounts() {
		got = append(got, acct.Client)
	}
	assert.Equal(t, []ClientID{1, 3, 9, 65535}, got)
}

func TestAccountsReturnsCopies(t *testing.T) {
	e := NewEngine()
	mustApply(t, e, deposit(1, 1, "5"), Applied)

	accts := e.Accounts()
	accts[0].Locked = true
	accts[0].Available = amount.MustParse("1000")

	assertBalances(t, e, 1, "5", "0", false)
}
