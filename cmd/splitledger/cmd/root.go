// Package cmd holds the splitledger command tree.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/splitledger/api"
	"github.com/bitfsorg/splitledger/config"
	"github.com/bitfsorg/splitledger/wallet"
)

var log = logging.Logger("splitledger/cmd")

var (
	cfg config.Config

	dataDir  string
	logLevel string
	apiURL   string
	password string
)

// RootCmd is the top-level splitledger command.
var RootCmd = &cobra.Command{
	Use:           "splitledger",
	Short:         "Split ledger for pooled contributions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataDir == "" {
			dataDir = config.DefaultDataDir()
		}
		var err error
		cfg, err = config.LoadOrDefault(config.ConfigPath(dataDir))
		if err != nil {
			return err
		}
		cfg.DataDir = dataDir
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if err := config.ValidateConfig(cfg); err != nil {
			return err
		}
		return setupLogging(cfg)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dataDir, "datadir", "", "data directory (default is $HOME/.splitledger)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "", "log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "ledger API URL (default http://<listen>)")
	RootCmd.PersistentFlags().StringVar(&password, "password", "", "keystore password (or SPLITLEDGER_PASSWORD)")
}

func setupLogging(c config.Config) error {
	lvl, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return err
	}
	logging.SetupLogging(logging.Config{
		Format: logging.ColorizedOutput,
		Level:  lvl,
		Stderr: c.LogFile == "",
		File:   c.LogFile,
	})
	return nil
}

func keystorePassword() string {
	if password != "" {
		return password
	}
	return os.Getenv(config.EnvPrefix + "_PASSWORD")
}

// unlockKey opens the keystore in the data directory.
func unlockKey() (*wallet.Key, error) {
	return wallet.OpenKeystore(config.KeystorePath(cfg.DataDir), keystorePassword())
}

func baseURL() string {
	if apiURL != "" {
		return apiURL
	}
	return "http://" + cfg.ListenAddr
}

// readClient returns an unsigned API client.
func readClient() *api.Client {
	return api.NewClient(baseURL(), nil)
}

// signingClient returns an API client signing with the keystore key.
func signingClient() (*api.Client, error) {
	key, err := unlockKey()
	if err != nil {
		return nil, err
	}
	return api.NewClient(baseURL(), key.PrivateKey), nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
