package cmd

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/api"
	"github.com/bitfsorg/splitledger/config"
	"github.com/bitfsorg/splitledger/ledger"
	"github.com/bitfsorg/splitledger/resolve"
	"github.com/bitfsorg/splitledger/wallet"
)

var (
	contributeReference   string
	contributeTx          string
	contributeContributor string

	eventsSince uint64
	eventsLimit int
)

// ContributeCmd credits a custody deposit sent by the keystore account, or,
// for the controller, records value received out of band.
var ContributeCmd = &cobra.Command{
	Use:   "contribute [amount]",
	Short: "Credit a custody deposit (--tx) or record an amount in base units (controller only)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signingClient()
		if err != nil {
			return err
		}

		var resp *api.ContributionResponse
		switch {
		case contributeTx != "" && len(args) == 0:
			resp, err = c.Contribute(cmd.Context(), contributeTx, contributeReference)
		case contributeTx == "" && len(args) == 1:
			amount, perr := uint256.FromDecimal(args[0])
			if perr != nil {
				return fmt.Errorf("amount %q: %w", args[0], perr)
			}
			var contributor account.Address
			if contributeContributor != "" {
				if contributor, err = account.ParseAddress(contributeContributor); err != nil {
					return err
				}
			}
			resp, err = c.Record(cmd.Context(), contributor, amount, contributeReference)
		default:
			return errors.New("give either --tx or an amount")
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

// WithdrawCmd withdraws the keystore account's pending balance.
var WithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the whole pending balance of the keystore account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signingClient()
		if err != nil {
			return err
		}
		resp, err := c.Withdraw(cmd.Context())
		if resp != nil {
			if perr := printJSON(cmd.OutOrStdout(), resp); perr != nil {
				return perr
			}
		}
		if errors.Is(err, ledger.ErrTransferFailed) {
			return fmt.Errorf("withdrawal settled but payout failed; contact the operator: %w", err)
		}
		return err
	},
}

// ReconfigureCmd replaces the beneficiary configuration.
var ReconfigureCmd = &cobra.Command{
	Use:   "reconfigure <beneficiary-file>",
	Short: "Replace the beneficiaries (controller only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := resolve.LoadBeneficiaryFile(args[0], beneficiaryResolver())
		if err != nil {
			return err
		}
		c, err := signingClient()
		if err != nil {
			return err
		}
		if err := c.Reconfigure(cmd.Context(), resolve.Beneficiaries(entries)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration replaced: %d beneficiaries\n", len(entries))
		return nil
	},
}

// BeneficiariesCmd prints the current configuration.
var BeneficiariesCmd = &cobra.Command{
	Use:   "beneficiaries",
	Short: "Show the current beneficiaries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bs, err := readClient().Beneficiaries(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), bs)
	},
}

// TotalsCmd prints an address's accumulators.
var TotalsCmd = &cobra.Command{
	Use:   "totals [address]",
	Short: "Show pending, withdrawn and lifetime totals (default: keystore address)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var addr account.Address
		if len(args) == 1 {
			var err error
			if addr, err = account.ParseAddress(args[0]); err != nil {
				return err
			}
		} else {
			ks, err := wallet.ReadKeystore(config.KeystorePath(cfg.DataDir))
			if err != nil {
				return err
			}
			addr = ks.Address
		}
		t, err := readClient().Totals(cmd.Context(), addr)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), t)
	},
}

// EventsCmd prints a page of the event log.
var EventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List ledger events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := readClient().Events(cmd.Context(), eventsSince, eventsLimit)
		if err != nil {
			return err
		}
		for _, ev := range resp.Events {
			fmt.Fprintln(cmd.OutOrStdout(), ev.String())
		}
		return nil
	},
}

// AuditCmd checks the pool against pending balances.
var AuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check that the pool covers every pending balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := readClient().Audit(cmd.Context())
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), r); err != nil {
			return err
		}
		if r.Deficit {
			return ledger.ErrPoolDeficit
		}
		return nil
	},
}

func init() {
	ContributeCmd.Flags().StringVar(&contributeReference, "reference", "", "opaque reference stored with the contribution")
	ContributeCmd.Flags().StringVar(&contributeTx, "tx", "", "hash of the deposit transaction sent to the custody account")
	ContributeCmd.Flags().StringVar(&contributeContributor, "contributor", "", "account credited for a recorded amount (default: controller)")
	addResolverFlags(ReconfigureCmd)
	EventsCmd.Flags().Uint64Var(&eventsSince, "since", 0, "only events after this sequence number")
	EventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "maximum number of events (0 = all)")
}
