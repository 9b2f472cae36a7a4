package ledger

// TransactionStore keeps every deposit and withdrawal seen in a run, keyed
// by TxID. Entries are inserted once and never removed.
type TransactionStore struct {
	txs map[TxID]*StoredTransaction
}

// NewTransactionStore creates an empty store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: make(map[TxID]*StoredTransaction)}
}

// InsertIfAbsent stores tx unless its id is already present. It returns
// false, leaving the existing entry untouched, when the id is taken.
func (s *TransactionStore) InsertIfAbsent(tx StoredTransaction) bool {
	if _, exists := s.txs[tx.Tx]; exists {
		return false
	}
	s.txs[tx.Tx] = &tx
	return true
}

// Exists reports whether id has been stored.
func (s *TransactionStore) Exists(id TxID) bool {
	_, ok := s.txs[id]
	return ok
}

// Get returns a copy of the stored transaction.
func (s *TransactionStore) Get(id TxID) (StoredTransaction, bool) {
	tx, ok := s.txs[id]
	if !ok {
		return StoredTransaction{}, false
	}
	return *tx, true
}

// SetStatus updates the lifecycle status of a stored transaction.
func (s *TransactionStore) SetStatus(id TxID, status Status) error {
	tx, ok := s.txs[id]
	if !ok {
		return &Error{Err: ErrMissingTransaction, Tx: id}
	}
	tx.Status = status
	return nil
}

// Len returns the number of stored transactions.
func (s *TransactionStore) Len() int {
	return len(s.txs)
}

// Each calls fn with a copy of every stored transaction, in no particular order.
func (s *TransactionStore) Each(fn func(StoredTransaction)) {
	for _, tx := range s.txs {
		fn(*tx)
	}
}
