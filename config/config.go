// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the split ledger daemon configuration.
//
// The file is TOML and lives at <datadir>/config.toml. Every key can be
// overridden by an environment variable named SPLITLEDGER_<KEY>, for example
// SPLITLEDGER_NETWORK or SPLITLEDGER_RPC_URL.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "SPLITLEDGER"

// Config holds the daemon and CLI settings.
type Config struct {
	DataDir        string   `mapstructure:"datadir"`
	ListenAddr     string   `mapstructure:"listen"`
	Network        string   `mapstructure:"network"`
	LogLevel       string   `mapstructure:"loglevel"`
	LogFile        string   `mapstructure:"logfile"`
	RPCURL         string   `mapstructure:"rpc_url"`
	RPCUser        string   `mapstructure:"rpc_user"`
	RPCPassword    string   `mapstructure:"rpc_password"`
	CustodyAccount string   `mapstructure:"custody_account"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	DryRun         bool     `mapstructure:"dry_run"`
}

// DefaultConfig returns a configuration for a local development node.
func DefaultConfig() Config {
	return Config{
		DataDir:        DefaultDataDir(),
		ListenAddr:     "127.0.0.1:8645",
		Network:        "devnet",
		LogLevel:       "info",
		AllowedOrigins: []string{},
	}
}

// DefaultDataDir returns ~/.splitledger, or .splitledger in the working
// directory when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".splitledger"
	}
	return filepath.Join(home, ".splitledger")
}

// ConfigPath returns the configuration file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// LedgerPath returns the ledger database path inside dataDir.
func LedgerPath(dataDir string) string {
	return filepath.Join(dataDir, "ledger.db")
}

// KeystorePath returns the encrypted key file path inside dataDir.
func KeystorePath(dataDir string) string {
	return filepath.Join(dataDir, "keystore.json")
}

// newViper returns a viper instance with defaults and env overrides wired.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range toMap(DefaultConfig()) {
		v.SetDefault(k, val)
	}
	return v
}

// LoadConfig reads the file at path. Keys missing from the file keep their
// defaults; unknown keys are ignored. Environment overrides apply last.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}
	return decode(v)
}

// LoadOrDefault is LoadConfig falling back to DefaultConfig with environment
// overrides when the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, ErrConfigNotFound) {
		return decode(newViper())
	}
	return cfg, err
}

func decode(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigPermissions(0600)
	for k, val := range toMap(cfg) {
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func toMap(cfg Config) map[string]interface{} {
	origins := cfg.AllowedOrigins
	if origins == nil {
		origins = []string{}
	}
	return map[string]interface{}{
		"datadir":         cfg.DataDir,
		"listen":          cfg.ListenAddr,
		"network":         cfg.Network,
		"loglevel":        cfg.LogLevel,
		"logfile":         cfg.LogFile,
		"rpc_url":         cfg.RPCURL,
		"rpc_user":        cfg.RPCUser,
		"rpc_password":    cfg.RPCPassword,
		"custody_account": cfg.CustodyAccount,
		"allowed_origins": origins,
		"dry_run":         cfg.DryRun,
	}
}
