package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfsorg/splitledger/cmd/splitledger/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := cmd.RootCmd
	rootCmd.AddCommand(
		cmd.InitCmd,
		cmd.ServeCmd,
		cmd.KeygenCmd,
		cmd.AddressCmd,
		cmd.ContributeCmd,
		cmd.WithdrawCmd,
		cmd.ReconfigureCmd,
		cmd.BeneficiariesCmd,
		cmd.TotalsCmd,
		cmd.EventsCmd,
		cmd.AuditCmd,
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "splitledger: %v\n", err)
		os.Exit(1)
	}
}
