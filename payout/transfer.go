// Package payout sends withdrawn value to beneficiaries.
//
// The ledger settles a withdrawal first and only then calls a Transferer, so
// a Transferer never sees a balance that is still pending.
package payout

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	logging "github.com/ipfs/go-log/v2"

	"github.com/bitfsorg/splitledger/account"
)

var log = logging.Logger("splitledger/payout")

// Transferer moves amount minimal units to the given account and returns
// an implementation-defined transfer reference such as a transaction hash.
type Transferer interface {
	Transfer(ctx context.Context, to account.Address, amount *uint256.Int) (string, error)
}

// TransferFunc adapts an ordinary function to the Transferer interface.
type TransferFunc func(ctx context.Context, to account.Address, amount *uint256.Int) (string, error)

// Transfer calls f(ctx, to, amount).
func (f TransferFunc) Transfer(ctx context.Context, to account.Address, amount *uint256.Int) (string, error) {
	return f(ctx, to, amount)
}

// RPCTransferer sends native value from a node-managed custody account with
// eth_sendTransaction.
type RPCTransferer struct {
	rpc  *RPCClient
	from account.Address
}

// Compile-time interface check.
var _ Transferer = (*RPCTransferer)(nil)

// NewRPCTransferer creates a transferer sending from the custody account
// named in cfg.From.
func NewRPCTransferer(cfg RPCConfig) (*RPCTransferer, error) {
	if cfg.From == "" {
		return nil, ErrNoCustodyAccount
	}
	from, err := account.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("payout: custody account: %w", err)
	}
	return &RPCTransferer{rpc: NewRPCClient(cfg), from: from}, nil
}

type sendTxArgs struct {
	From  account.Address `json:"from"`
	To    account.Address `json:"to"`
	Value string          `json:"value"`
}

// Transfer submits the transfer and returns the transaction hash.
func (t *RPCTransferer) Transfer(ctx context.Context, to account.Address, amount *uint256.Int) (string, error) {
	if amount == nil {
		return "", fmt.Errorf("%w: amount", ErrNilParam)
	}

	args := sendTxArgs{From: t.from, To: to, Value: amount.Hex()}
	var txHash string
	if err := t.rpc.Call(ctx, "eth_sendTransaction", []interface{}{args}, &txHash); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return "", fmt.Errorf("%w: %w", ErrTransferRejected, err)
		}
		return "", err
	}
	if !isTxHash(txHash) {
		return "", fmt.Errorf("%w: transaction hash %q", ErrInvalidResponse, txHash)
	}

	log.Infow("transfer submitted", "to", to, "amount", amount.Dec(), "tx", txHash)
	return txHash, nil
}

func isTxHash(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// LogTransferer records transfers in the log without moving any value. It
// serves dry runs and ledgers whose payouts are settled out of band.
type LogTransferer struct{}

// Compile-time interface check.
var _ Transferer = LogTransferer{}

// Transfer logs the transfer and returns an empty reference.
func (LogTransferer) Transfer(_ context.Context, to account.Address, amount *uint256.Int) (string, error) {
	if amount == nil {
		return "", fmt.Errorf("%w: amount", ErrNilParam)
	}
	log.Infow("payout not sent (log-only transferer)", "to", to, "amount", amount.Dec())
	return "", nil
}
