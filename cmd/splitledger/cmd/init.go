package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/config"
	"github.com/bitfsorg/splitledger/ledger"
	"github.com/bitfsorg/splitledger/resolve"
	"github.com/bitfsorg/splitledger/store"
	"github.com/bitfsorg/splitledger/wallet"
)

var (
	initController string
	initFile       string

	useDNSSEC   bool
	dnsUpstream string
)

// InitCmd creates the ledger database and writes the configuration file.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a ledger with a controller and beneficiary file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	InitCmd.Flags().StringVar(&initController, "controller", "", "controller account (default: keystore address)")
	InitCmd.Flags().StringVar(&initFile, "beneficiaries", "", "beneficiary file (JSON)")
	_ = InitCmd.MarkFlagRequired("beneficiaries")
	addResolverFlags(InitCmd)
}

func addResolverFlags(c *cobra.Command) {
	c.Flags().BoolVar(&useDNSSEC, "dnssec", false, "require DNSSEC-validated answers for domain entries")
	c.Flags().StringVar(&dnsUpstream, "dns-upstream", "", "validating resolver for --dnssec (default 8.8.8.8:53)")
}

func beneficiaryResolver() resolve.DNSResolver {
	if useDNSSEC {
		return resolve.NewDNSSECResolver(dnsUpstream)
	}
	return resolve.DefaultDNSResolver
}

func controllerAddress() (account.Address, error) {
	if initController != "" {
		return account.ParseAddress(initController)
	}
	ks, err := wallet.ReadKeystore(config.KeystorePath(cfg.DataDir))
	if err != nil {
		return account.Zero, fmt.Errorf("no --controller given and no keystore: %w", err)
	}
	return ks.Address, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	controller, err := controllerAddress()
	if err != nil {
		return err
	}
	entries, err := resolve.LoadBeneficiaryFile(initFile, beneficiaryResolver())
	if err != nil {
		return err
	}

	cfgPath := config.ConfigPath(cfg.DataDir)
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		if err := config.SaveConfig(cfgPath, cfg); err != nil {
			return err
		}
		log.Infow("wrote configuration", "path", cfgPath)
	}

	st, err := store.OpenBoltStore(config.LedgerPath(cfg.DataDir))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if _, err := ledger.Init(cmd.Context(), st, controller, resolve.Beneficiaries(entries)); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ledger:     %s\n", st.Path())
	fmt.Fprintf(out, "controller: %s\n", controller.Hex())
	for _, e := range entries {
		fmt.Fprintf(out, "  %s %5d bps %s\n", e.Beneficiary.Address.Hex(), e.Beneficiary.Shares, e.Label)
	}
	return nil
}
