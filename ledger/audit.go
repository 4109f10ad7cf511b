package ledger

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/splitter"
	"github.com/bitfsorg/splitledger/store"
)

// AuditReport compares the pooled value against the entitlement records.
type AuditReport struct {
	Pool      uint256.Int
	Pending   uint256.Int // sum of pending balances
	Withdrawn uint256.Int // sum of withdrawn totals
	Surplus   uint256.Int // Pool - Pending when the pool covers it
	Accounts  int
}

// Audit recomputes the sum of pending balances from a consistent snapshot
// and checks the pool covers it. A shortfall returns the report together
// with an error wrapping ErrPoolDeficit.
func (l *Ledger) Audit(ctx context.Context) (*AuditReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &AuditReport{}
	var overflow bool
	err := l.store.View(func(tx store.ReadTx) error {
		if _, err := controllerOf(tx); err != nil {
			return err
		}
		pool, err := tx.Pool()
		if err != nil {
			return err
		}
		r.Pool = pool
		return tx.ForEachEntitlement(func(_ account.Address, e *splitter.Entitlement) error {
			r.Accounts++
			if _, o := r.Pending.AddOverflow(&r.Pending, &e.Pending); o {
				overflow = true
			}
			r.Withdrawn.Add(&r.Withdrawn, &e.Withdrawn)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if overflow || r.Pool.Lt(&r.Pending) {
		log.Errorw("audit found pool deficit", "pool", r.Pool.Dec(), "pending", r.Pending.Dec())
		return r, fmt.Errorf("%w: pool %s, pending %s", ErrPoolDeficit, r.Pool.Dec(), r.Pending.Dec())
	}
	r.Surplus.Sub(&r.Pool, &r.Pending)
	return r, nil
}
