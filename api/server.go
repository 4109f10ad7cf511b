// Package api serves a Ledger over HTTP and provides a matching client.
//
// Reads are open. Mutating requests are signed with the caller's secp256k1
// key (see SignRequest); the signer's account address is the caller the
// ledger sees. Amounts travel as base-10 strings.
//
// Contributions must be backed by value the custody account received: either
// a deposit transaction checked by a payout.DepositVerifier, or a record made
// by the controller.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/bitfsorg/splitledger/ledger"
	"github.com/bitfsorg/splitledger/payout"
)

var log = logging.Logger("splitledger/api")

// maxBodySize caps request bodies.
const maxBodySize = 1 << 20

// Options configures a Server.
type Options struct {
	// AllowedOrigins lists CORS origins. Empty allows none.
	AllowedOrigins []string

	// Gatherer, when set, is served at /metrics.
	Gatherer prometheus.Gatherer

	// SkewWindow bounds signed timestamps. Zero selects DefaultSkewWindow.
	SkewWindow time.Duration

	// Now overrides the clock used to check signed timestamps.
	Now func() time.Time

	// Deposits, when set, lets any signer contribute by naming a custody
	// deposit it sent. Without it only the controller may contribute.
	Deposits payout.DepositVerifier
}

// Server exposes a Ledger over HTTP.
type Server struct {
	ledger   *ledger.Ledger
	verifier *Verifier
	deposits payout.DepositVerifier
	handler  http.Handler
}

// NewServer builds the router for l.
func NewServer(l *ledger.Ledger, opts Options) *Server {
	s := &Server{
		ledger:   l,
		verifier: NewVerifier(opts.SkewWindow, opts.Now),
		deposits: opts.Deposits,
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequests)

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/beneficiaries", s.getBeneficiaries).Methods(http.MethodGet)
	v1.HandleFunc("/beneficiaries", s.putBeneficiaries).Methods(http.MethodPut)
	v1.HandleFunc("/accounts/{address}", s.getAccount).Methods(http.MethodGet)
	v1.HandleFunc("/controller", s.getController).Methods(http.MethodGet)
	v1.HandleFunc("/pool", s.getPool).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.getEvents).Methods(http.MethodGet)
	v1.HandleFunc("/audit", s.getAudit).Methods(http.MethodGet)
	v1.HandleFunc("/contributions", s.postContribution).Methods(http.MethodPost)
	v1.HandleFunc("/withdrawals", s.postWithdrawal).Methods(http.MethodPost)

	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Content-Type", HeaderPubKey, HeaderTimestamp, HeaderSignature},
	})
	s.handler = c.Handler(router)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debugw("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "elapsed", time.Since(start))
	})
}
