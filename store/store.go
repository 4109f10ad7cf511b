// Package store persists ledger state: the controller, the beneficiary
// configuration, per-address entitlements, the pooled value, the recorded
// deposit hashes and the append-only event log.
//
// All access goes through transactions. Update runs fn in a single
// read-write transaction that commits only if fn returns nil, so a failed
// operation never leaves partial state behind.
package store

import (
	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/events"
	"github.com/bitfsorg/splitledger/splitter"
)

// ReadTx is a consistent read-only view of ledger state.
type ReadTx interface {
	// Controller returns the controller account, or ErrNotFound before
	// initialization.
	Controller() (account.Address, error)

	// Beneficiaries returns the current configuration, or ErrNotFound before
	// initialization.
	Beneficiaries() ([]splitter.Beneficiary, error)

	// Entitlement returns the record for addr. Addresses that were never
	// credited yield a zero record.
	Entitlement(addr account.Address) (splitter.Entitlement, error)

	// ForEachEntitlement calls fn for every stored record in address order.
	ForEachEntitlement(fn func(addr account.Address, e *splitter.Entitlement) error) error

	// Pool returns the pooled value held by the ledger.
	Pool() (uint256.Int, error)

	// Events returns up to limit events with Seq > since, oldest first.
	// A limit <= 0 returns all of them.
	Events(since uint64, limit int) ([]*events.Event, error)

	// LastSeq returns the sequence number of the newest event, 0 if none.
	LastSeq() (uint64, error)

	// DepositSeq returns the sequence number of the contribution that
	// recorded the deposit txHash, 0 if it was never recorded.
	DepositSeq(txHash string) (uint64, error)
}

// Tx is a read-write transaction.
type Tx interface {
	ReadTx

	PutController(addr account.Address) error
	PutBeneficiaries(bs []splitter.Beneficiary) error
	PutEntitlement(addr account.Address, e *splitter.Entitlement) error
	PutPool(v *uint256.Int) error

	// AppendEvent assigns the next sequence number to e and appends it.
	AppendEvent(e *events.Event) error

	// PutDeposit marks txHash as recorded by the event with sequence seq.
	PutDeposit(txHash string, seq uint64) error
}

// Store is a transactional ledger state store.
type Store interface {
	View(fn func(ReadTx) error) error
	Update(fn func(Tx) error) error
	Close() error
}
