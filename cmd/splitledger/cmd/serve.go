package cmd

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bitfsorg/splitledger/api"
	"github.com/bitfsorg/splitledger/config"
	"github.com/bitfsorg/splitledger/events"
	"github.com/bitfsorg/splitledger/ledger"
	"github.com/bitfsorg/splitledger/payout"
	"github.com/bitfsorg/splitledger/store"
)

// ServeCmd runs the ledger API.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// newPayout returns the transferer paying withdrawals and the verifier
// checking deposits. A dry run pays nothing and verifies nothing, so only
// the controller can record contributions.
func newPayout() (payout.Transferer, payout.DepositVerifier, error) {
	if cfg.DryRun {
		log.Warnw("dry run: withdrawals are settled but not paid out, deposits are not verified")
		return payout.LogTransferer{}, nil, nil
	}
	env := make(map[string]string)
	for _, k := range []string{"SPLITLEDGER_RPC_URL", "SPLITLEDGER_RPC_USER", "SPLITLEDGER_RPC_PASS", "SPLITLEDGER_CUSTODY_ACCOUNT"} {
		env[k] = os.Getenv(k)
	}
	rc, err := payout.ResolveConfig(&payout.RPCConfig{
		URL:      cfg.RPCURL,
		User:     cfg.RPCUser,
		Password: cfg.RPCPassword,
		From:     cfg.CustodyAccount,
	}, env, cfg.Network)
	if err != nil {
		return nil, nil, err
	}
	transferer, err := payout.NewRPCTransferer(*rc)
	if err != nil {
		return nil, nil, err
	}
	deposits, err := payout.NewRPCDepositVerifier(*rc)
	if err != nil {
		return nil, nil, err
	}
	return transferer, deposits, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	transferer, deposits, err := newPayout()
	if err != nil {
		return err
	}

	st, err := store.OpenBoltStore(config.LedgerPath(cfg.DataDir))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	l, err := ledger.Open(cmd.Context(), st,
		ledger.WithTransferer(transferer),
		ledger.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}

	srv := api.NewServer(l, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Gatherer:       reg,
		Deposits:       deposits,
	})

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.ListenAddr)
	})
	g.Go(func() error {
		logEvents(ctx, l)
		return nil
	})

	err = g.Wait()
	log.Infow("ledger stopped", "err", err)
	return err
}

// logEvents logs every committed event until ctx is done. A dropped
// subscription is renewed.
func logEvents(ctx context.Context, l *ledger.Ledger) {
	for {
		ch := make(chan *events.Event, 64)
		_, closer := l.Subscribe(ch)
		for open := true; open; {
			select {
			case <-ctx.Done():
				closer()
				return
			case ev, ok := <-ch:
				if !ok {
					log.Warnw("event subscription dropped; resubscribing")
					open = false
					continue
				}
				log.Infow("event", "seq", ev.Seq, "kind", ev.Kind, "detail", ev.String())
			}
		}
	}
}
