package store

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/events"
	"github.com/bitfsorg/splitledger/splitter"
)

// MemStore is an in-memory Store for tests and dry runs. Update buffers
// writes in an overlay and applies them only when fn succeeds.
type MemStore struct {
	mu     sync.RWMutex
	closed bool

	controller    *account.Address
	beneficiaries []splitter.Beneficiary
	entitlements  map[account.Address]splitter.Entitlement
	pool          uint256.Int
	deposits      map[string]uint64
	log           []events.Event
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		entitlements: make(map[account.Address]splitter.Entitlement),
		deposits:     make(map[string]uint64),
	}
}

// View runs fn against the committed state.
func (s *MemStore) View(fn func(ReadTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{s: s})
}

// Update runs fn in a read-write transaction.
func (s *MemStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx := &memTx{
		s:            s,
		writable:     true,
		entitlements: make(map[account.Address]splitter.Entitlement),
		deposits:     make(map[string]uint64),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Close marks the store closed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memTx overlays uncommitted writes on the committed state.
type memTx struct {
	s        *MemStore
	writable bool

	controller    *account.Address
	beneficiaries []splitter.Beneficiary
	entitlements  map[account.Address]splitter.Entitlement
	pool          *uint256.Int
	deposits      map[string]uint64
	appended      []events.Event
}

func (t *memTx) Controller() (account.Address, error) {
	switch {
	case t.controller != nil:
		return *t.controller, nil
	case t.s.controller != nil:
		return *t.s.controller, nil
	}
	return account.Zero, fmt.Errorf("%w: controller", ErrNotFound)
}

func (t *memTx) Beneficiaries() ([]splitter.Beneficiary, error) {
	switch {
	case t.beneficiaries != nil:
		return splitter.Clone(t.beneficiaries), nil
	case t.s.beneficiaries != nil:
		return splitter.Clone(t.s.beneficiaries), nil
	}
	return nil, fmt.Errorf("%w: beneficiaries", ErrNotFound)
}

func (t *memTx) Entitlement(addr account.Address) (splitter.Entitlement, error) {
	if e, ok := t.entitlements[addr]; ok {
		return e, nil
	}
	return t.s.entitlements[addr], nil
}

func (t *memTx) ForEachEntitlement(fn func(account.Address, *splitter.Entitlement) error) error {
	merged := make(map[account.Address]splitter.Entitlement, len(t.s.entitlements)+len(t.entitlements))
	for a, e := range t.s.entitlements {
		merged[a] = e
	}
	for a, e := range t.entitlements {
		merged[a] = e
	}

	addrs := make([]account.Address, 0, len(merged))
	for a := range merged {
		addrs = append(addrs, a)
	}
	slices.SortFunc(addrs, func(a, b account.Address) int { return bytes.Compare(a[:], b[:]) })

	for _, a := range addrs {
		e := merged[a]
		if err := fn(a, &e); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) Pool() (uint256.Int, error) {
	if t.pool != nil {
		return *t.pool, nil
	}
	return t.s.pool, nil
}

func (t *memTx) Events(since uint64, limit int) ([]*events.Event, error) {
	var out []*events.Event
	for _, part := range [][]events.Event{t.s.log, t.appended} {
		for i := range part {
			if part[i].Seq <= since {
				continue
			}
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
			e := part[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

func (t *memTx) LastSeq() (uint64, error) {
	return uint64(len(t.s.log) + len(t.appended)), nil
}

func (t *memTx) DepositSeq(txHash string) (uint64, error) {
	if seq, ok := t.deposits[txHash]; ok {
		return seq, nil
	}
	return t.s.deposits[txHash], nil
}

func (t *memTx) PutController(addr account.Address) error {
	t.controller = &addr
	return nil
}

func (t *memTx) PutBeneficiaries(bs []splitter.Beneficiary) error {
	if bs == nil {
		return fmt.Errorf("%w: beneficiaries", ErrNilParam)
	}
	t.beneficiaries = splitter.Clone(bs)
	return nil
}

func (t *memTx) PutEntitlement(addr account.Address, e *splitter.Entitlement) error {
	if e == nil {
		return fmt.Errorf("%w: entitlement", ErrNilParam)
	}
	t.entitlements[addr] = *e
	return nil
}

func (t *memTx) PutPool(v *uint256.Int) error {
	if v == nil {
		return fmt.Errorf("%w: pool", ErrNilParam)
	}
	p := *v
	t.pool = &p
	return nil
}

func (t *memTx) AppendEvent(e *events.Event) error {
	if e == nil {
		return fmt.Errorf("%w: event", ErrNilParam)
	}
	seq, _ := t.LastSeq()
	e.Seq = seq + 1
	t.appended = append(t.appended, *e)
	return nil
}

func (t *memTx) PutDeposit(txHash string, seq uint64) error {
	if txHash == "" {
		return fmt.Errorf("%w: deposit hash", ErrNilParam)
	}
	t.deposits[txHash] = seq
	return nil
}

func (t *memTx) commit() {
	s := t.s
	if t.controller != nil {
		c := *t.controller
		s.controller = &c
	}
	if t.beneficiaries != nil {
		s.beneficiaries = t.beneficiaries
	}
	for a, e := range t.entitlements {
		s.entitlements[a] = e
	}
	if t.pool != nil {
		s.pool = *t.pool
	}
	for h, seq := range t.deposits {
		s.deposits[h] = seq
	}
	s.log = append(s.log, t.appended...)
}
