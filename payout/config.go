package payout

import "fmt"

// RPCConfig holds the connection parameters for an execution node's JSON-RPC
// interface and the custody account transfers are sent from.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	From     string `json:"from"`
	Network  string `json:"network"`
}

// NetworkPresets contains default RPC configurations for known networks.
// Public networks are omitted so they always need explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	"devnet": {URL: "http://localhost:8545"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. flags (highest priority)
//  2. environment variables (SPLITLEDGER_RPC_URL, SPLITLEDGER_RPC_USER,
//     SPLITLEDGER_RPC_PASS, SPLITLEDGER_CUSTODY_ACCOUNT)
//  3. network presets (devnet only)
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if env != nil {
		if v, ok := env["SPLITLEDGER_RPC_URL"]; ok && v != "" {
			result.URL = v
		}
		if v, ok := env["SPLITLEDGER_RPC_USER"]; ok && v != "" {
			result.User = v
		}
		if v, ok := env["SPLITLEDGER_RPC_PASS"]; ok && v != "" {
			result.Password = v
		}
		if v, ok := env["SPLITLEDGER_CUSTODY_ACCOUNT"]; ok && v != "" {
			result.From = v
		}
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
		if flags.From != "" {
			result.From = flags.From
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("payout: %s requires explicit RPC configuration (set --rpc-url, SPLITLEDGER_RPC_URL, or config file)", network)
	}
	return &result, nil
}
