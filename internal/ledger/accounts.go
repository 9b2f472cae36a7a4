package ledger

import (
	"cmp"
	"slices"
)

// AccountStore keeps one Account per client, created on first reference.
type AccountStore struct {
	accounts map[ClientID]*Account
}

// NewAccountStore creates an empty store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[ClientID]*Account)}
}

// GetOrCreate returns the client's account, adding a zero, unlocked one if
// the client has not been seen. The pointer is for the engine's use only.
func (s *AccountStore) GetOrCreate(client ClientID) *Account {
	acct, ok := s.accounts[client]
	if !ok {
		acct = &Account{Client: client}
		s.accounts[client] = acct
	}
	return acct
}

// Get returns a copy of the client's account without creating it.
func (s *AccountStore) Get(client ClientID) (Account, bool) {
	acct, ok := s.accounts[client]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}

// Len returns the number of accounts.
func (s *AccountStore) Len() int {
	return len(s.accounts)
}

// Snapshot returns copies of all accounts ordered by client id.
func (s *AccountStore) Snapshot() []Account {
	out := make([]Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, *acct)
	}
	slices.SortFunc(out, func(a, b Account) int {
		return cmp.Compare(a.Client, b.Client)
	})
	return out
}
