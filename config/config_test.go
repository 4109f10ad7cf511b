// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"ListenAddr", cfg.ListenAddr, "127.0.0.1:8645"},
		{"Network", cfg.Network, "devnet"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
		{"DryRun", cfg.DryRun, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	original := Config{
		DataDir:        "/tmp/test-splitledger",
		ListenAddr:     ":9000",
		Network:        "sepolia",
		LogLevel:       "debug",
		LogFile:        "/tmp/splitledger.log",
		RPCURL:         "https://rpc.example.org",
		RPCUser:        "ops",
		RPCPassword:    "secret",
		CustodyAccount: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		AllowedOrigins: []string{"https://donate.example.org"},
		DryRun:         true,
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if !reflect.DeepEqual(loaded, original) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", loaded, original)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("config file permissions = %o, want no group/other access", perm)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.toml")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	if err := os.WriteFile(path, []byte("network = = \"devnet\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigFile) {
		t.Errorf("LoadConfig bad toml: got %v, want ErrInvalidConfigFile", err)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	content := `# This is a comment
network = "sepolia"

# Another comment
loglevel = "debug"
futurekey = "futurevalue"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Network != "sepolia" {
		t.Errorf("Network = %q, want %q", cfg.Network, "sepolia")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Unset fields should retain defaults.
	if cfg.ListenAddr != "127.0.0.1:8645" {
		t.Errorf("ListenAddr = %q, want default %q", cfg.ListenAddr, "127.0.0.1:8645")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	if err := os.WriteFile(path, []byte("network = \"sepolia\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPLITLEDGER_NETWORK", "mainnet")
	t.Setenv("SPLITLEDGER_RPC_URL", "https://node.example.org")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Network != "mainnet" {
		t.Errorf("Network = %q, want env override %q", cfg.Network, "mainnet")
	}
	if cfg.RPCURL != "https://node.example.org" {
		t.Errorf("RPCURL = %q, want env override", cfg.RPCURL)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("SPLITLEDGER_LOGLEVEL", "warn")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.Network != "devnet" {
		t.Errorf("Network = %q, want default %q", cfg.Network, "devnet")
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_network",
			modify:  func(c *Config) { c.Network = "regtest" },
			wantErr: ErrInvalidNetwork,
		},
		{
			name:    "bad_listen_addr",
			modify:  func(c *Config) { c.ListenAddr = "not-a-valid-addr" },
			wantErr: ErrInvalidListenAddr,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad_rpc_scheme",
			modify:  func(c *Config) { c.RPCURL = "ftp://node:8545" },
			wantErr: ErrInvalidRPCURL,
		},
		{
			name:    "bad_custody_account",
			modify:  func(c *Config) { c.CustodyAccount = "0x1234" },
			wantErr: ErrInvalidCustodyAccount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigValidNetworks(t *testing.T) {
	for _, network := range []string{"mainnet", "sepolia", "devnet"} {
		cfg := DefaultConfig()
		cfg.Network = network
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with network %q: %v", network, err)
		}
	}
}

func TestValidateConfigValidLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with loglevel %q: %v", level, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func TestPaths(t *testing.T) {
	dir := "/home/user/.splitledger"
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config", ConfigPath(dir), filepath.Join(dir, "config.toml")},
		{"ledger", LedgerPath(dir), filepath.Join(dir, "ledger.db")},
		{"keystore", KeystorePath(dir), filepath.Join(dir, "keystore.json")},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s path = %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestDefaultDataDir_EndsWith_DotSplitledger(t *testing.T) {
	dir := DefaultDataDir()
	if !strings.HasSuffix(dir, ".splitledger") {
		t.Errorf("DefaultDataDir() = %q, want suffix %q", dir, ".splitledger")
	}
}
