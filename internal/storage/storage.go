package storage

// Tx is one atomic batch of document mutations. Writes staged through a Tx
// become visible all-or-nothing on Commit; a Rollback discards them.
type Tx interface {
	Commit() error
	Rollback() error
}
