// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"sepolia\", or \"devnet\")")

	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigFile indicates the configuration file cannot be parsed.
	ErrInvalidConfigFile = errors.New("config: invalid configuration file")

	// ErrInvalidRPCURL indicates the node RPC endpoint is not an http(s) URL.
	ErrInvalidRPCURL = errors.New("config: invalid RPC URL")

	// ErrInvalidCustodyAccount indicates the custody account is not an address.
	ErrInvalidCustodyAccount = errors.New("config: invalid custody account")
)
