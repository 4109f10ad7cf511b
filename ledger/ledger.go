// Package ledger implements the split ledger: contributions are split across
// a beneficiary configuration by basis points, credited to per-address
// pending balances, and withdrawn in full by their owners.
//
// Every mutating operation takes the ledger's mutex, validates its input and
// then writes in a single store transaction, so it commits fully or not at
// all. Withdraw pays out only after its transaction has committed and the
// mutex has been released.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	logging "github.com/ipfs/go-log/v2"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/events"
	"github.com/bitfsorg/splitledger/payout"
	"github.com/bitfsorg/splitledger/splitter"
	"github.com/bitfsorg/splitledger/store"
)

var log = logging.Logger("splitledger/ledger")

// Ledger is a split ledger over a Store. It is safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	store store.Store
	bus   events.Bus

	transferer payout.Transferer
	alerter    Alerter
	now        func() time.Time
	metrics    *metrics
}

// Contribution is the outcome of an accepted contribution.
type Contribution struct {
	Contributor account.Address
	Amount      uint256.Int
	Reference   string
	TxHash      string
	Credits     []splitter.Credit
	Event       *events.Event
}

// Withdrawal is the outcome of a settled withdrawal. TransferRef is the
// reference returned by the Transferer, empty if the transfer failed.
type Withdrawal struct {
	Beneficiary account.Address
	Amount      uint256.Int
	TransferRef string
	Event       *events.Event
}

func newLedger(st store.Store, opts []Option) *Ledger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Ledger{
		store:      st,
		transferer: o.transferer,
		alerter:    o.alerter,
		now:        o.now,
		metrics:    newMetrics(o.registerer),
	}
}

// Init creates a ledger in an empty store. controller becomes the only
// account allowed to reconfigure it. An invalid list fails with
// ErrInvalidConfiguration and leaves the store untouched.
func Init(ctx context.Context, st store.Store, controller account.Address, bs []splitter.Beneficiary, opts ...Option) (*Ledger, error) {
	if st == nil {
		return nil, fmt.Errorf("ledger: nil store")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if controller.IsZero() {
		return nil, fmt.Errorf("%w: zero controller", ErrInvalidParams)
	}
	if err := splitter.ValidateBeneficiaries(bs); err != nil {
		return nil, err
	}

	l := newLedger(st, opts)
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := events.BeneficiariesUpdated(len(bs), splitter.TotalShares, l.now())
	err := st.Update(func(tx store.Tx) error {
		if _, err := tx.Controller(); err == nil {
			return ErrAlreadyInitialized
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.PutController(controller); err != nil {
			return err
		}
		if err := tx.PutBeneficiaries(bs); err != nil {
			return err
		}
		return tx.AppendEvent(ev)
	})
	l.metrics.observe("init", err)
	if err != nil {
		return nil, err
	}

	l.metrics.beneficiaries.Set(float64(len(bs)))
	l.publish(ev)
	log.Infow("ledger initialized", "controller", controller, "beneficiaries", len(bs))
	return l, nil
}

// Open attaches to a store initialized by Init.
func Open(ctx context.Context, st store.Store, opts ...Option) (*Ledger, error) {
	if st == nil {
		return nil, fmt.Errorf("ledger: nil store")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var count int
	var seq uint64
	err := st.View(func(tx store.ReadTx) error {
		if _, err := controllerOf(tx); err != nil {
			return err
		}
		bs, err := beneficiariesOf(tx)
		if err != nil {
			return err
		}
		count = len(bs)
		seq, err = tx.LastSeq()
		return err
	})
	if err != nil {
		return nil, err
	}

	l := newLedger(st, opts)
	l.metrics.beneficiaries.Set(float64(count))
	l.metrics.lastSeq.Set(float64(seq))
	return l, nil
}

// Reconfigure replaces the beneficiary configuration. Only the controller
// may call it; the authorization check runs before validation. Entitlement
// records are not touched.
func (l *Ledger) Reconfigure(ctx context.Context, caller account.Address, bs []splitter.Beneficiary) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ev := events.BeneficiariesUpdated(len(bs), splitter.TotalShares, l.now())
	err := l.store.Update(func(tx store.Tx) error {
		controller, err := controllerOf(tx)
		if err != nil {
			return err
		}
		if caller != controller {
			return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
		}
		if err := splitter.ValidateBeneficiaries(bs); err != nil {
			return err
		}
		if err := tx.PutBeneficiaries(bs); err != nil {
			return err
		}
		return tx.AppendEvent(ev)
	})
	l.metrics.observe("reconfigure", err)
	if err != nil {
		return nil, err
	}

	l.metrics.beneficiaries.Set(float64(len(bs)))
	l.publish(ev)
	log.Infow("beneficiaries updated", "count", len(bs), "seq", ev.Seq)
	return ev, nil
}

// Contribute splits amount across the current configuration and credits
// each beneficiary's pending balance. Every entry but the last receives
// floor(amount * shares / 10000); the last receives the remainder. reference
// is stored and re-emitted verbatim.
func (l *Ledger) Contribute(ctx context.Context, contributor account.Address, amount *uint256.Int, reference string) (*Contribution, error) {
	return l.contribute(ctx, contributor, amount, reference, "")
}

// ContributeDeposit records a verified custody deposit as a contribution
// from its sender. Each transaction hash is credited at most once; a second
// attempt fails with ErrDuplicateDeposit.
func (l *Ledger) ContributeDeposit(ctx context.Context, d *payout.Deposit, reference string) (*Contribution, error) {
	if d == nil || d.TxHash == "" {
		return nil, fmt.Errorf("%w: deposit", ErrInvalidParams)
	}
	c, err := l.contribute(ctx, d.From, &d.Value, reference, d.TxHash)
	if err != nil {
		return nil, err
	}
	c.TxHash = d.TxHash
	return c, nil
}

func (l *Ledger) contribute(ctx context.Context, contributor account.Address, amount *uint256.Int, reference, txHash string) (*Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		l.metrics.observe("contribute", ErrInvalidParams)
		return nil, fmt.Errorf("%w: contribution amount must be positive", ErrInvalidParams)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c := &Contribution{Contributor: contributor, Reference: reference}
	c.Amount.Set(amount)
	ev := events.ContributionRecorded(contributor, amount, reference, l.now())

	err := l.store.Update(func(tx store.Tx) error {
		if txHash != "" {
			seq, err := tx.DepositSeq(txHash)
			if err != nil {
				return err
			}
			if seq != 0 {
				return fmt.Errorf("%w: %s recorded by event %d", ErrDuplicateDeposit, txHash, seq)
			}
		}
		bs, err := beneficiariesOf(tx)
		if err != nil {
			return err
		}
		credits, err := splitter.Split(amount, bs)
		if err != nil {
			return err
		}
		if err := splitter.ValidateConservation(amount, credits); err != nil {
			return err
		}

		pool, err := tx.Pool()
		if err != nil {
			return err
		}
		if _, overflow := pool.AddOverflow(&pool, amount); overflow {
			return fmt.Errorf("%w: pool overflow", ErrInvalidParams)
		}

		for i := range credits {
			if credits[i].Amount.IsZero() {
				continue
			}
			e, err := tx.Entitlement(credits[i].Address)
			if err != nil {
				return err
			}
			if err := e.Credit(&credits[i].Amount); err != nil {
				return err
			}
			if err := tx.PutEntitlement(credits[i].Address, &e); err != nil {
				return err
			}
		}
		if err := tx.PutPool(&pool); err != nil {
			return err
		}
		c.Credits = credits
		if err := tx.AppendEvent(ev); err != nil {
			return err
		}
		if txHash != "" {
			return tx.PutDeposit(txHash, ev.Seq)
		}
		return nil
	})
	l.metrics.observe("contribute", err)
	if err != nil {
		return nil, err
	}

	c.Event = ev
	l.publish(ev)
	log.Infow("contribution recorded", "contributor", contributor, "amount", amount.Dec(), "seq", ev.Seq)
	return c, nil
}

// Receive records a plain value transfer: a contribution without a reference.
func (l *Ledger) Receive(ctx context.Context, contributor account.Address, amount *uint256.Int) (*Contribution, error) {
	return l.Contribute(ctx, contributor, amount, "")
}

// Withdraw pays caller its entire pending balance. The balance is settled
// and committed first; the transfer runs afterwards without the ledger lock,
// so a Withdraw re-entered from the transfer sees a zero balance.
//
// If the transfer fails the withdrawal stays committed: the returned error
// wraps ErrTransferFailed, the Withdrawal is still returned and the Alerter
// is notified.
func (l *Ledger) Withdraw(ctx context.Context, caller account.Address) (*Withdrawal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := l.settle(caller)
	l.metrics.observe("withdraw", err)
	if err != nil {
		return nil, err
	}

	ref, err := l.transferer.Transfer(ctx, caller, &w.Amount)
	if err != nil {
		l.metrics.transferFailures.Inc()
		l.alerter.TransferFailed(w, err)
		return w, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	w.TransferRef = ref
	return w, nil
}

// settle zeroes caller's pending balance under the ledger lock.
func (l *Ledger) settle(caller account.Address) (*Withdrawal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := &Withdrawal{Beneficiary: caller}
	var ev *events.Event

	err := l.store.Update(func(tx store.Tx) error {
		if _, err := controllerOf(tx); err != nil {
			return err
		}
		e, err := tx.Entitlement(caller)
		if err != nil {
			return err
		}
		if e.Pending.IsZero() {
			return fmt.Errorf("%w: %s", ErrNothingToWithdraw, caller)
		}

		pool, err := tx.Pool()
		if err != nil {
			return err
		}
		if pool.Lt(&e.Pending) {
			return fmt.Errorf("%w: pool %s, pending %s", ErrPoolDeficit, pool.Dec(), e.Pending.Dec())
		}

		w.Amount = e.Settle()
		pool.Sub(&pool, &w.Amount)

		if err := tx.PutEntitlement(caller, &e); err != nil {
			return err
		}
		if err := tx.PutPool(&pool); err != nil {
			return err
		}
		ev = events.Withdrawn(caller, &w.Amount, l.now())
		return tx.AppendEvent(ev)
	})
	if err != nil {
		return nil, err
	}

	w.Event = ev
	l.publish(ev)
	log.Infow("withdrawal settled", "beneficiary", caller, "amount", w.Amount.Dec(), "seq", ev.Seq)
	return w, nil
}

// publish fans a committed event out. Callers hold l.mu.
func (l *Ledger) publish(ev *events.Event) {
	l.metrics.lastSeq.Set(float64(ev.Seq))
	l.bus.Publish(ev)
}

func controllerOf(tx store.ReadTx) (account.Address, error) {
	c, err := tx.Controller()
	if errors.Is(err, store.ErrNotFound) {
		return account.Zero, ErrNotInitialized
	}
	return c, err
}

func beneficiariesOf(tx store.ReadTx) ([]splitter.Beneficiary, error) {
	bs, err := tx.Beneficiaries()
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	return bs, err
}
