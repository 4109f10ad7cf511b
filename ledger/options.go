package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitfsorg/splitledger/payout"
)

// Alerter is told about settled withdrawals whose payout failed. Those need
// an operator: the beneficiary's balance is already marked withdrawn.
type Alerter interface {
	TransferFailed(w *Withdrawal, err error)
}

// AlertFunc adapts a function to the Alerter interface.
type AlertFunc func(w *Withdrawal, err error)

// TransferFailed calls f(w, err).
func (f AlertFunc) TransferFailed(w *Withdrawal, err error) { f(w, err) }

type logAlerter struct{}

func (logAlerter) TransferFailed(w *Withdrawal, err error) {
	log.Errorw("payout transfer failed; manual settlement required",
		"beneficiary", w.Beneficiary, "amount", w.Amount.Dec(), "seq", w.Event.Seq, "err", err)
}

type options struct {
	transferer payout.Transferer
	alerter    Alerter
	now        func() time.Time
	registerer prometheus.Registerer
}

func defaultOptions() options {
	return options{
		transferer: payout.LogTransferer{},
		alerter:    logAlerter{},
		now:        time.Now,
	}
}

// Option configures a Ledger.
type Option func(*options)

// WithTransferer sets how withdrawals are paid out. The default only logs.
func WithTransferer(t payout.Transferer) Option {
	return func(o *options) { o.transferer = t }
}

// WithAlerter sets who is told about failed payouts. The default logs at
// error level.
func WithAlerter(a Alerter) Option {
	return func(o *options) { o.alerter = a }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRegisterer registers the ledger's metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}
