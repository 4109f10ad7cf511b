package payout

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the node.
	ErrConnectionFailed = errors.New("payout: connection failed")

	// ErrAuthFailed indicates the node rejected the RPC credentials.
	ErrAuthFailed = errors.New("payout: authentication failed")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("payout: invalid response")

	// ErrTransferRejected indicates the node refused to send the transfer.
	ErrTransferRejected = errors.New("payout: transfer rejected")

	// ErrNoCustodyAccount indicates no sending account is configured.
	ErrNoCustodyAccount = errors.New("payout: custody account not configured")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("payout: required parameter is nil")
)

var (
	// ErrDepositNotFound indicates the node does not know the deposit transaction.
	ErrDepositNotFound = errors.New("payout: deposit transaction not found")

	// ErrDepositNotConfirmed indicates the deposit is pending or reverted.
	ErrDepositNotConfirmed = errors.New("payout: deposit not confirmed")

	// ErrDepositMismatch indicates the transaction did not pay the custody account.
	ErrDepositMismatch = errors.New("payout: transaction is not a custody deposit")
)
