package api

import (
	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/events"
	"github.com/bitfsorg/splitledger/ledger"
	"github.com/bitfsorg/splitledger/splitter"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Withdrawal *WithdrawalResponse `json:"withdrawal,omitempty"`
}

// ConfigurationResponse lists the current beneficiaries.
type ConfigurationResponse struct {
	Beneficiaries []splitter.Beneficiary `json:"beneficiaries"`
	TotalShares   uint16                 `json:"total_shares"`
}

// ReconfigureRequest is the body of PUT /v1/beneficiaries.
type ReconfigureRequest struct {
	Beneficiaries []splitter.Beneficiary `json:"beneficiaries"`
}

// TotalsResponse reports one address's accumulators.
type TotalsResponse struct {
	Address   account.Address `json:"address"`
	Pending   string          `json:"pending"`
	Withdrawn string          `json:"withdrawn"`
	Lifetime  string          `json:"lifetime"`
}

func totalsResponse(addr account.Address, t ledger.Totals) *TotalsResponse {
	return &TotalsResponse{
		Address:   addr,
		Pending:   t.Pending.Dec(),
		Withdrawn: t.Withdrawn.Dec(),
		Lifetime:  t.Lifetime.Dec(),
	}
}

// ControllerResponse names the controller account.
type ControllerResponse struct {
	Controller account.Address `json:"controller"`
}

// PoolResponse reports the pooled value.
type PoolResponse struct {
	Pool string `json:"pool"`
}

// ContributionRequest is the body of POST /v1/contributions.
//
// When the server verifies deposits, TxHash names a confirmed transfer from
// the signer into custody and Amount, if given, must equal its value.
// Otherwise only the controller may contribute, and Contributor attributes
// the value to another account.
type ContributionRequest struct {
	Amount      string           `json:"amount,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	TxHash      string           `json:"tx_hash,omitempty"`
	Contributor *account.Address `json:"contributor,omitempty"`
}

// CreditResponse is one beneficiary's share of a contribution.
type CreditResponse struct {
	Address account.Address `json:"address"`
	Amount  string          `json:"amount"`
}

// ContributionResponse reports an accepted contribution.
type ContributionResponse struct {
	Seq         uint64           `json:"seq"`
	Contributor account.Address  `json:"contributor"`
	Amount      string           `json:"amount"`
	Reference   string           `json:"reference,omitempty"`
	TxHash      string           `json:"tx_hash,omitempty"`
	Credits     []CreditResponse `json:"credits"`
}

func contributionResponse(c *ledger.Contribution) *ContributionResponse {
	resp := &ContributionResponse{
		Seq:         c.Event.Seq,
		Contributor: c.Contributor,
		Amount:      c.Amount.Dec(),
		Reference:   c.Reference,
		TxHash:      c.TxHash,
		Credits:     make([]CreditResponse, len(c.Credits)),
	}
	for i := range c.Credits {
		resp.Credits[i] = CreditResponse{Address: c.Credits[i].Address, Amount: c.Credits[i].Amount.Dec()}
	}
	return resp
}

// WithdrawalResponse reports a settled withdrawal.
type WithdrawalResponse struct {
	Seq         uint64          `json:"seq"`
	Beneficiary account.Address `json:"beneficiary"`
	Amount      string          `json:"amount"`
	TransferRef string          `json:"transfer_ref,omitempty"`
}

func withdrawalResponse(w *ledger.Withdrawal) *WithdrawalResponse {
	return &WithdrawalResponse{
		Seq:         w.Event.Seq,
		Beneficiary: w.Beneficiary,
		Amount:      w.Amount.Dec(),
		TransferRef: w.TransferRef,
	}
}

// EventsResponse is a page of the event log.
type EventsResponse struct {
	Events []*events.Event `json:"events"`
}

// AuditResponse reports an audit. Deficit is set when the pool does not
// cover the pending balances; Surplus is then empty.
type AuditResponse struct {
	Pool      string `json:"pool"`
	Pending   string `json:"pending"`
	Withdrawn string `json:"withdrawn"`
	Surplus   string `json:"surplus,omitempty"`
	Accounts  int    `json:"accounts"`
	Deficit   bool   `json:"deficit"`
}

func auditResponse(r *ledger.AuditReport, deficit bool) *AuditResponse {
	resp := &AuditResponse{
		Pool:      r.Pool.Dec(),
		Pending:   r.Pending.Dec(),
		Withdrawn: r.Withdrawn.Dec(),
		Accounts:  r.Accounts,
		Deficit:   deficit,
	}
	if !deficit {
		resp.Surplus = r.Surplus.Dec()
	}
	return resp
}
