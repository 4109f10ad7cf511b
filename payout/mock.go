package payout

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
)

// MockTransferer is a test double for Transferer that records every call.
// TransferFn is optional; without it every transfer succeeds.
type MockTransferer struct {
	TransferFn func(ctx context.Context, to account.Address, amount *uint256.Int) (string, error)

	mu    sync.Mutex
	calls []MockTransfer
}

// MockTransfer is one recorded call.
type MockTransfer struct {
	To     account.Address
	Amount uint256.Int
}

func (m *MockTransferer) Transfer(ctx context.Context, to account.Address, amount *uint256.Int) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockTransfer{To: to, Amount: *amount})
	m.mu.Unlock()

	if m.TransferFn == nil {
		return "", nil
	}
	return m.TransferFn(ctx, to, amount)
}

// Calls returns the transfers made so far.
func (m *MockTransferer) Calls() []MockTransfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockTransfer, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockDepositVerifier is a test double for DepositVerifier backed by a
// fixed set of deposits keyed by transaction hash.
type MockDepositVerifier struct {
	mu       sync.Mutex
	deposits map[string]Deposit
}

// Compile-time interface check.
var _ DepositVerifier = (*MockDepositVerifier)(nil)

// NewMockDepositVerifier creates a verifier that knows no deposits.
func NewMockDepositVerifier() *MockDepositVerifier {
	return &MockDepositVerifier{deposits: make(map[string]Deposit)}
}

// Add makes d verifiable by its transaction hash.
func (m *MockDepositVerifier) Add(d Deposit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deposits[d.TxHash] = d
}

func (m *MockDepositVerifier) VerifyDeposit(_ context.Context, txHash string) (*Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[txHash]
	if !ok {
		return nil, ErrDepositNotFound
	}
	return &d, nil
}
