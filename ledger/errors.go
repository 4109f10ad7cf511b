package ledger

import (
	"errors"

	"github.com/bitfsorg/splitledger/splitter"
)

var (
	// ErrInvalidConfiguration indicates a beneficiary list failed validation.
	ErrInvalidConfiguration = splitter.ErrInvalidConfiguration

	// ErrInvalidParams indicates a zero contribution or an amount that would
	// overflow a balance.
	ErrInvalidParams = splitter.ErrInvalidParams

	// ErrNotAuthorized indicates the caller is not the controller.
	ErrNotAuthorized = errors.New("ledger: caller is not the controller")

	// ErrNothingToWithdraw indicates the caller has no pending balance.
	ErrNothingToWithdraw = errors.New("ledger: nothing to withdraw")

	// ErrAlreadyInitialized indicates Init was called on an initialized store.
	ErrAlreadyInitialized = errors.New("ledger: already initialized")

	// ErrNotInitialized indicates the store holds no ledger yet.
	ErrNotInitialized = errors.New("ledger: not initialized")

	// ErrTransferFailed indicates a withdrawal was settled but the payout
	// transfer did not go through. The ledger does not retry it.
	ErrTransferFailed = errors.New("ledger: payout transfer failed")

	// ErrDuplicateDeposit indicates a deposit transaction was already
	// credited.
	ErrDuplicateDeposit = errors.New("ledger: deposit already recorded")

	// ErrPoolDeficit indicates the pooled value is below the sum of pending
	// balances.
	ErrPoolDeficit = errors.New("ledger: pool below pending balances")
)

// Stable error codes for callers outside the process.
const (
	CodeInvalidConfiguration = "invalid_configuration"
	CodeNotAuthorized        = "not_authorized"
	CodeInvalidParams        = "invalid_params"
	CodeNothingToWithdraw    = "nothing_to_withdraw"
	CodeAlreadyInitialized   = "already_initialized"
	CodeNotInitialized       = "not_initialized"
	CodeTransferFailed       = "transfer_failed"
	CodePoolDeficit          = "pool_deficit"
	CodeDuplicateDeposit     = "duplicate_deposit"
	CodeInternal             = "internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidConfiguration, CodeInvalidConfiguration},
	{ErrNotAuthorized, CodeNotAuthorized},
	{ErrInvalidParams, CodeInvalidParams},
	{ErrNothingToWithdraw, CodeNothingToWithdraw},
	{ErrAlreadyInitialized, CodeAlreadyInitialized},
	{ErrNotInitialized, CodeNotInitialized},
	{ErrTransferFailed, CodeTransferFailed},
	{ErrPoolDeficit, CodePoolDeficit},
	{ErrDuplicateDeposit, CodeDuplicateDeposit},
}

// Code returns the stable code for err, CodeInternal for unrecognised
// errors and "" for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// ErrorForCode is the inverse of Code. It returns nil for unknown codes.
func ErrorForCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
