package payout

import (
	"context"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
)

// Deposit is a confirmed transfer of native value into the custody account.
type Deposit struct {
	TxHash string
	From   account.Address
	To     account.Address
	Value  uint256.Int
}

// DepositVerifier looks up a transaction and returns it as a Deposit only
// if it succeeded and paid the custody account.
type DepositVerifier interface {
	VerifyDeposit(ctx context.Context, txHash string) (*Deposit, error)
}

// RPCDepositVerifier checks deposits against an execution node with
// eth_getTransactionByHash and eth_getTransactionReceipt.
type RPCDepositVerifier struct {
	rpc     *RPCClient
	custody account.Address
}

// Compile-time interface check.
var _ DepositVerifier = (*RPCDepositVerifier)(nil)

// NewRPCDepositVerifier creates a verifier accepting deposits into the
// custody account named in cfg.From.
func NewRPCDepositVerifier(cfg RPCConfig) (*RPCDepositVerifier, error) {
	if cfg.From == "" {
		return nil, ErrNoCustodyAccount
	}
	custody, err := account.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("payout: custody account: %w", err)
	}
	return &RPCDepositVerifier{rpc: NewRPCClient(cfg), custody: custody}, nil
}

type rpcTransaction struct {
	Hash  string           `json:"hash"`
	From  account.Address  `json:"from"`
	To    *account.Address `json:"to"`
	Value string           `json:"value"`
}

type rpcReceipt struct {
	Status string `json:"status"`
}

// VerifyDeposit returns the deposit made by txHash. A transaction the node
// does not know wraps ErrDepositNotFound; a pending or reverted one wraps
// ErrDepositNotConfirmed; one sent elsewhere wraps ErrDepositMismatch.
func (v *RPCDepositVerifier) VerifyDeposit(ctx context.Context, txHash string) (*Deposit, error) {
	txHash = strings.ToLower(txHash)
	if !isTxHash(txHash) {
		return nil, fmt.Errorf("%w: transaction hash %q", ErrDepositNotFound, txHash)
	}

	var tx *rpcTransaction
	if err := v.rpc.Call(ctx, "eth_getTransactionByHash", []interface{}{txHash}, &tx); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %s", ErrDepositNotFound, txHash)
	}
	if !strings.EqualFold(tx.Hash, txHash) {
		return nil, fmt.Errorf("%w: asked for %s, got %s", ErrInvalidResponse, txHash, tx.Hash)
	}

	var receipt *rpcReceipt
	if err := v.rpc.Call(ctx, "eth_getTransactionReceipt", []interface{}{txHash}, &receipt); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, fmt.Errorf("%w: %s is pending", ErrDepositNotConfirmed, txHash)
	}
	if receipt.Status != "0x1" {
		return nil, fmt.Errorf("%w: %s has status %q", ErrDepositNotConfirmed, txHash, receipt.Status)
	}

	if tx.To == nil || *tx.To != v.custody {
		return nil, fmt.Errorf("%w: %s", ErrDepositMismatch, txHash)
	}
	value, err := uint256.FromHex(tx.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: value %q: %w", ErrInvalidResponse, tx.Value, err)
	}

	d := &Deposit{TxHash: txHash, From: tx.From, To: *tx.To}
	d.Value.Set(value)
	log.Debugw("deposit verified", "tx", txHash, "from", d.From, "value", d.Value.Dec())
	return d, nil
}
