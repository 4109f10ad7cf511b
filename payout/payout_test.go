package payout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/splitledger/account"
)

const (
	custody = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	txHash  = "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"
)

var bob = account.MustParseAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")

// --- RPCClient ---

func TestRPCClientCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "testuser", user)
		assert.Equal(t, "testpass", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "eth_chainId", req.Method)

		json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`"0x539"`)})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL, User: "testuser", Password: "testpass"})
	var chainID string
	require.NoError(t, client.Call(context.Background(), "eth_chainId", nil, &chainID))
	assert.Equal(t, "0x539", chainID)
}

func TestRPCClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: ErrAuthFailed,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			want: ErrConnectionFailed,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
			want: ErrInvalidResponse,
		},
		{
			name: "id mismatch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(rpcResponse{ID: 999, Result: json.RawMessage(`1`)})
			},
			want: ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewRPCClient(RPCConfig{URL: server.URL})
			var out int
			err := client.Call(context.Background(), "eth_blockNumber", nil, &out)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRPCClientRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Error: &rpcError{Code: -32000, Message: "insufficient funds"}})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	err := client.Call(context.Background(), "eth_sendTransaction", nil, nil)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32000, rpcErr.Code)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestRPCClientConnectionError(t *testing.T) {
	client := NewRPCClient(RPCConfig{URL: "http://localhost:1"})
	err := client.Call(context.Background(), "eth_blockNumber", nil, nil)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestRPCClientSequentialIDs(t *testing.T) {
	var ids []int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		ids = append(ids, req.ID)
		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`0`)})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	for i := 0; i < 3; i++ {
		require.NoError(t, client.Call(context.Background(), "eth_blockNumber", nil, nil))
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

// --- RPCTransferer ---

func TestRPCTransferer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64            `json:"id"`
			Method string           `json:"method"`
			Params []sendTxArgsWire `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eth_sendTransaction", req.Method)
		require.Len(t, req.Params, 1)
		assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", req.Params[0].From)
		assert.Equal(t, bob.Hex(), req.Params[0].To)
		assert.Equal(t, "0xde0b6b3a7640000", req.Params[0].Value)

		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`"` + txHash + `"`)})
	}))
	defer server.Close()

	tr, err := NewRPCTransferer(RPCConfig{URL: server.URL, From: custody})
	require.NoError(t, err)

	ref, err := tr.Transfer(context.Background(), bob, uint256.MustFromDecimal("1000000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, txHash, ref)
}

type sendTxArgsWire struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

func TestRPCTransferer_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Error: &rpcError{Code: -32000, Message: "insufficient funds"}})
	}))
	defer server.Close()

	tr, err := NewRPCTransferer(RPCConfig{URL: server.URL, From: custody})
	require.NoError(t, err)
	_, err = tr.Transfer(context.Background(), bob, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrTransferRejected)
}

func TestRPCTransferer_BadHash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`"0x1234"`)})
	}))
	defer server.Close()

	tr, err := NewRPCTransferer(RPCConfig{URL: server.URL, From: custody})
	require.NoError(t, err)
	_, err = tr.Transfer(context.Background(), bob, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestNewRPCTransferer_Config(t *testing.T) {
	_, err := NewRPCTransferer(RPCConfig{URL: "http://localhost:8545"})
	assert.ErrorIs(t, err, ErrNoCustodyAccount)

	_, err = NewRPCTransferer(RPCConfig{URL: "http://localhost:8545", From: "0x12"})
	assert.ErrorIs(t, err, account.ErrInvalidAddress)
}

func TestLogTransferer(t *testing.T) {
	ref, err := LogTransferer{}.Transfer(context.Background(), bob, uint256.NewInt(5))
	require.NoError(t, err)
	assert.Empty(t, ref)

	_, err = LogTransferer{}.Transfer(context.Background(), bob, nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestTransferFunc(t *testing.T) {
	var got account.Address
	var tr Transferer = TransferFunc(func(_ context.Context, to account.Address, _ *uint256.Int) (string, error) {
		got = to
		return "ok", nil
	})
	ref, err := tr.Transfer(context.Background(), bob, uint256.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "ok", ref)
	assert.Equal(t, bob, got)
}

func TestMockTransferer_RecordsCalls(t *testing.T) {
	m := &MockTransferer{}
	_, err := m.Transfer(context.Background(), bob, uint256.NewInt(3))
	require.NoError(t, err)
	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, bob, calls[0].To)
	assert.Equal(t, uint64(3), calls[0].Amount.Uint64())
}

// --- ResolveConfig ---

func TestResolveConfig(t *testing.T) {
	t.Run("devnet preset", func(t *testing.T) {
		cfg, err := ResolveConfig(nil, nil, "devnet")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8545", cfg.URL)
		assert.Equal(t, "devnet", cfg.Network)
	})

	t.Run("public network requires explicit url", func(t *testing.T) {
		_, err := ResolveConfig(nil, nil, "mainnet")
		assert.Error(t, err)
	})

	t.Run("env overrides preset", func(t *testing.T) {
		env := map[string]string{
			"SPLITLEDGER_RPC_URL":         "http://node:8545",
			"SPLITLEDGER_RPC_USER":        "u",
			"SPLITLEDGER_RPC_PASS":        "p",
			"SPLITLEDGER_CUSTODY_ACCOUNT": custody,
		}
		cfg, err := ResolveConfig(nil, env, "devnet")
		require.NoError(t, err)
		assert.Equal(t, "http://node:8545", cfg.URL)
		assert.Equal(t, "u", cfg.User)
		assert.Equal(t, "p", cfg.Password)
		assert.Equal(t, custody, cfg.From)
	})

	t.Run("flags override env", func(t *testing.T) {
		env := map[string]string{"SPLITLEDGER_RPC_URL": "http://env:8545"}
		cfg, err := ResolveConfig(&RPCConfig{URL: "http://flag:8545"}, env, "sepolia")
		require.NoError(t, err)
		assert.Equal(t, "http://flag:8545", cfg.URL)
		assert.Equal(t, "sepolia", cfg.Network)
	})
}
