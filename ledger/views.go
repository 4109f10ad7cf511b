package ledger

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/events"
	"github.com/bitfsorg/splitledger/splitter"
	"github.com/bitfsorg/splitledger/store"
)

// Totals are the accumulators of one address.
type Totals struct {
	Pending   uint256.Int
	Withdrawn uint256.Int
	Lifetime  uint256.Int
}

// Beneficiaries returns the current configuration as parallel address and
// share slices, in configuration order.
func (l *Ledger) Beneficiaries(ctx context.Context) ([]account.Address, []uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var bs []splitter.Beneficiary
	err := l.store.View(func(tx store.ReadTx) error {
		var err error
		bs, err = beneficiariesOf(tx)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	addrs, shares := splitter.Addresses(bs)
	return addrs, shares, nil
}

// Configuration returns the current configuration entries.
func (l *Ledger) Configuration(ctx context.Context) ([]splitter.Beneficiary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var bs []splitter.Beneficiary
	err := l.store.View(func(tx store.ReadTx) error {
		var err error
		bs, err = beneficiariesOf(tx)
		return err
	})
	return bs, err
}

// Totals returns pending, withdrawn and lifetime amounts for addr. Addresses
// that were never credited report zeros.
func (l *Ledger) Totals(ctx context.Context, addr account.Address) (Totals, error) {
	var t Totals
	if err := ctx.Err(); err != nil {
		return t, err
	}
	err := l.store.View(func(tx store.ReadTx) error {
		e, err := tx.Entitlement(addr)
		if err != nil {
			return err
		}
		t.Pending = e.Pending
		t.Withdrawn = e.Withdrawn
		t.Lifetime = e.Lifetime()
		return nil
	})
	return t, err
}

// Pending returns the withdrawable balance of addr.
func (l *Ledger) Pending(ctx context.Context, addr account.Address) (uint256.Int, error) {
	t, err := l.Totals(ctx, addr)
	return t.Pending, err
}

// Controller returns the account allowed to reconfigure the ledger.
func (l *Ledger) Controller(ctx context.Context) (account.Address, error) {
	if err := ctx.Err(); err != nil {
		return account.Zero, err
	}
	var c account.Address
	err := l.store.View(func(tx store.ReadTx) error {
		var err error
		c, err = controllerOf(tx)
		return err
	})
	return c, err
}

// Pool returns the value held by the ledger.
func (l *Ledger) Pool(ctx context.Context) (uint256.Int, error) {
	var p uint256.Int
	if err := ctx.Err(); err != nil {
		return p, err
	}
	err := l.store.View(func(tx store.ReadTx) error {
		var err error
		p, err = tx.Pool()
		return err
	})
	return p, err
}

// Events returns up to limit committed events with Seq > since, oldest
// first. A limit <= 0 returns all of them.
func (l *Ledger) Events(ctx context.Context, since uint64, limit int) ([]*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var evs []*events.Event
	err := l.store.View(func(tx store.ReadTx) error {
		var err error
		evs, err = tx.Events(since, limit)
		return err
	})
	return evs, err
}

// Subscribe registers ch for events committed from now on and returns the
// last event published by this Ledger, if any. Events arrive in sequence
// order. A subscriber whose channel is full is dropped and its channel
// closed; use Events to catch up from the last Seq seen.
func (l *Ledger) Subscribe(ch chan<- *events.Event) (last *events.Event, closer func()) {
	return l.bus.Subscribe(ch)
}
