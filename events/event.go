// Package events defines the records the ledger emits on every state change
// and a fan-out bus for live subscribers.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
)

// Kind names an event type.
type Kind string

const (
	KindBeneficiariesUpdated Kind = "BeneficiariesUpdated"
	KindContributionRecorded Kind = "ContributionRecorded"
	KindWithdrawn            Kind = "Withdrawn"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBeneficiariesUpdated, KindContributionRecorded, KindWithdrawn:
		return true
	}
	return false
}

// Event is one entry of the ledger's append-only event log.
//
// Which fields are meaningful depends on Kind:
//   - BeneficiariesUpdated: Count, TotalShares
//   - ContributionRecorded: Account (contributor), Amount, Reference
//   - Withdrawn: Account (beneficiary), Amount
//
// Seq is assigned by the store when the event is appended and starts at 1.
type Event struct {
	Seq         uint64
	Kind        Kind
	Timestamp   time.Time
	Account     account.Address
	Amount      uint256.Int
	Reference   string
	Count       int
	TotalShares uint16
}

// BeneficiariesUpdated builds the event recorded when the configuration is
// replaced.
func BeneficiariesUpdated(count int, totalShares uint16, at time.Time) *Event {
	return &Event{
		Kind:        KindBeneficiariesUpdated,
		Timestamp:   at.UTC(),
		Count:       count,
		TotalShares: totalShares,
	}
}

// ContributionRecorded builds the event recorded for an accepted contribution.
func ContributionRecorded(contributor account.Address, amount *uint256.Int, reference string, at time.Time) *Event {
	e := &Event{
		Kind:      KindContributionRecorded,
		Timestamp: at.UTC(),
		Account:   contributor,
		Reference: reference,
	}
	e.Amount.Set(amount)
	return e
}

// Withdrawn builds the event recorded when a beneficiary withdraws.
func Withdrawn(beneficiary account.Address, amount *uint256.Int, at time.Time) *Event {
	e := &Event{
		Kind:      KindWithdrawn,
		Timestamp: at.UTC(),
		Account:   beneficiary,
	}
	e.Amount.Set(amount)
	return e
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	switch e.Kind {
	case KindBeneficiariesUpdated:
		return fmt.Sprintf("#%d %s count=%d total=%d", e.Seq, e.Kind, e.Count, e.TotalShares)
	case KindContributionRecorded:
		return fmt.Sprintf("#%d %s contributor=%s amount=%s reference=%q", e.Seq, e.Kind, e.Account, e.Amount.Dec(), e.Reference)
	default:
		return fmt.Sprintf("#%d %s account=%s amount=%s", e.Seq, e.Kind, e.Account, e.Amount.Dec())
	}
}

// wireEvent is the JSON form. Amounts travel as decimal strings.
type wireEvent struct {
	Seq         uint64           `json:"seq"`
	Kind        Kind             `json:"kind"`
	Timestamp   time.Time        `json:"timestamp"`
	Account     *account.Address `json:"account,omitempty"`
	Amount      string           `json:"amount,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	Count       int              `json:"count,omitempty"`
	TotalShares uint16           `json:"total_shares,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{
		Seq:         e.Seq,
		Kind:        e.Kind,
		Timestamp:   e.Timestamp,
		Reference:   e.Reference,
		Count:       e.Count,
		TotalShares: e.TotalShares,
	}
	if e.Kind != KindBeneficiariesUpdated {
		a := e.Account
		w.Account = &a
		w.Amount = e.Amount.Dec()
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if !w.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, w.Kind)
	}

	out := Event{
		Seq:         w.Seq,
		Kind:        w.Kind,
		Timestamp:   w.Timestamp,
		Reference:   w.Reference,
		Count:       w.Count,
		TotalShares: w.TotalShares,
	}
	if w.Account != nil {
		out.Account = *w.Account
	}
	if w.Amount != "" {
		if err := out.Amount.SetFromDecimal(w.Amount); err != nil {
			return fmt.Errorf("%w: amount %q: %w", ErrInvalidEvent, w.Amount, err)
		}
	}
	*e = out
	return nil
}
