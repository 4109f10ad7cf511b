// Package splitter holds the beneficiary configuration model and the
// proportional split of a contribution into per-beneficiary credits.
package splitter

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
)

// TotalShares is the basis-point total every configuration must add up to.
const TotalShares = 10000

// Beneficiary is one entry of the beneficiary configuration.
type Beneficiary struct {
	Address account.Address `json:"address"`
	Shares  uint16          `json:"bps"` // basis points, 10000 = 100%
}

// Credit is the amount one beneficiary receives from a single contribution.
type Credit struct {
	Address account.Address
	Amount  uint256.Int
}

// Entitlement is the accrual record kept for every address ever credited.
type Entitlement struct {
	Pending   uint256.Int // credited, not yet withdrawn
	Withdrawn uint256.Int // lifetime total paid out
}

// Lifetime returns Pending + Withdrawn, the total ever credited.
// Credit keeps this sum below 2^256.
func (e *Entitlement) Lifetime() uint256.Int {
	var l uint256.Int
	l.Add(&e.Pending, &e.Withdrawn)
	return l
}

// Credit adds amount to the pending balance. It fails without modifying e
// when the pending balance or the lifetime total would overflow.
func (e *Entitlement) Credit(amount *uint256.Int) error {
	var pending uint256.Int
	if _, overflow := pending.AddOverflow(&e.Pending, amount); overflow {
		return fmt.Errorf("%w: pending balance overflow", ErrInvalidParams)
	}
	var lifetime uint256.Int
	if _, overflow := lifetime.AddOverflow(&pending, &e.Withdrawn); overflow {
		return fmt.Errorf("%w: lifetime total overflow", ErrInvalidParams)
	}
	e.Pending = pending
	return nil
}

// Settle moves the whole pending balance into Withdrawn and returns it.
func (e *Entitlement) Settle() uint256.Int {
	amount := e.Pending
	e.Withdrawn.Add(&e.Withdrawn, &amount)
	e.Pending.Clear()
	return amount
}

// Addresses returns the beneficiary addresses and shares as parallel slices,
// in configuration order.
func Addresses(bs []Beneficiary) ([]account.Address, []uint16) {
	addrs := make([]account.Address, len(bs))
	shares := make([]uint16, len(bs))
	for i, b := range bs {
		addrs[i] = b.Address
		shares[i] = b.Shares
	}
	return addrs, shares
}

// Clone returns a copy of bs that shares no memory with it.
func Clone(bs []Beneficiary) []Beneficiary {
	if bs == nil {
		return nil
	}
	out := make([]Beneficiary, len(bs))
	copy(out, bs)
	return out
}
