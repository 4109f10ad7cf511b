package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/splitledger/config"
	"github.com/bitfsorg/splitledger/wallet"
)

var (
	keygenMnemonic   string
	keygenPassphrase string
	keygenIndex      uint32
	keygenWords      int
)

// KeygenCmd creates the encrypted keystore.
var KeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create the signing key and its encrypted keystore",
	Args:  cobra.NoArgs,
	RunE:  runKeygen,
}

// AddressCmd prints the keystore's account address.
var AddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the account address of the keystore",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := wallet.ReadKeystore(config.KeystorePath(cfg.DataDir))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), ks.Address.Hex())
		return err
	},
}

func init() {
	KeygenCmd.Flags().StringVar(&keygenMnemonic, "mnemonic", "", "restore from this BIP39 mnemonic instead of generating one")
	KeygenCmd.Flags().StringVar(&keygenPassphrase, "passphrase", "", "optional BIP39 passphrase")
	KeygenCmd.Flags().Uint32Var(&keygenIndex, "index", 0, "address index in m/44'/60'/0'/0")
	KeygenCmd.Flags().IntVar(&keygenWords, "words", 12, "mnemonic length: 12 or 24")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	pw := keystorePassword()
	if pw == "" {
		return errors.New("a keystore password is required (--password or SPLITLEDGER_PASSWORD)")
	}

	mnemonic := keygenMnemonic
	generated := mnemonic == ""
	if generated {
		bits := wallet.Mnemonic12Words
		if keygenWords == 24 {
			bits = wallet.Mnemonic24Words
		}
		var err error
		if mnemonic, err = wallet.GenerateMnemonic(bits); err != nil {
			return err
		}
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, keygenPassphrase)
	if err != nil {
		return err
	}
	path := config.KeystorePath(cfg.DataDir)
	key, err := wallet.CreateKeystore(path, seed, keygenIndex, pw)
	if err != nil {
		return err
	}
	log.Infow("keystore created", "path", path, "address", key.Address)

	out := cmd.OutOrStdout()
	if generated {
		fmt.Fprintf(out, "mnemonic: %s\n", mnemonic)
		fmt.Fprintln(out, "Write the mnemonic down; it is the only backup of this key.")
	}
	fmt.Fprintf(out, "address:  %s\n", key.Address.Hex())
	fmt.Fprintf(out, "path:     %s\n", key.Path)
	return nil
}
