package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/events"
	"github.com/bitfsorg/splitledger/ledger"
	"github.com/bitfsorg/splitledger/payout"
	"github.com/bitfsorg/splitledger/splitter"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnw("write response", "err", err)
	}
}

// statusFor maps a ledger error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case ledger.CodeInvalidConfiguration, ledger.CodeInvalidParams:
		return http.StatusBadRequest
	case ledger.CodeNotAuthorized:
		return http.StatusForbidden
	case ledger.CodeNothingToWithdraw, ledger.CodeAlreadyInitialized, ledger.CodePoolDeficit,
		ledger.CodeDuplicateDeposit:
		return http.StatusConflict
	case ledger.CodeNotInitialized:
		return http.StatusServiceUnavailable
	case ledger.CodeTransferFailed:
		return http.StatusBadGateway
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := ledger.Code(err)
	if errors.Is(err, ErrInvalidRequest) {
		code = ledger.CodeInvalidParams
	}
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "err", err)
	}
	writeJSON(w, status, &ErrorResponse{Code: code, Message: err.Error()})
}

func writeAuthError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Code: CodeUnauthenticated, Message: err.Error()})
}

// authenticate reads the body and verifies its signature. It writes the
// error response itself and reports ok=false on failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (account.Address, []byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, fmt.Errorf("%w: read body: %w", ErrInvalidRequest, err))
		return account.Zero, nil, false
	}
	caller, err := s.verifier.Verify(r, body)
	if err != nil {
		log.Infow("rejected request", "method", r.Method, "path", r.URL.Path, "err", err)
		writeAuthError(w, err)
		return account.Zero, nil, false
	}
	return caller, body, true
}

func decodeBody(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) getBeneficiaries(w http.ResponseWriter, r *http.Request) {
	bs, err := s.ledger.Configuration(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &ConfigurationResponse{Beneficiaries: bs, TotalShares: splitter.TotalShares})
}

func (s *Server) putBeneficiaries(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req ReconfigureRequest
	if err := decodeBody(body, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.ledger.Reconfigure(r.Context(), caller, req.Beneficiaries); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &ConfigurationResponse{Beneficiaries: req.Beneficiaries, TotalShares: splitter.TotalShares})
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := account.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	t, err := s.ledger.Totals(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse(addr, t))
}

func (s *Server) getController(w http.ResponseWriter, r *http.Request) {
	c, err := s.ledger.Controller(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &ControllerResponse{Controller: c})
}

func (s *Server) getPool(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.Pool(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &PoolResponse{Pool: p.Dec()})
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var since uint64
	var limit int
	var err error
	if v := q.Get("since"); v != "" {
		if since, err = strconv.ParseUint(v, 10, 64); err != nil {
			writeError(w, fmt.Errorf("%w: since: %w", ErrInvalidRequest, err))
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeError(w, fmt.Errorf("%w: limit %q", ErrInvalidRequest, v))
			return
		}
	}

	evs, err := s.ledger.Events(r.Context(), since, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if evs == nil {
		evs = []*events.Event{}
	}
	writeJSON(w, http.StatusOK, &EventsResponse{Events: evs})
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	report, err := s.ledger.Audit(r.Context())
	deficit := errors.Is(err, ledger.ErrPoolDeficit)
	if err != nil && !deficit {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auditResponse(report, deficit))
}

// postContribution credits value that provably reached custody. With a
// deposit verifier the signer must name a confirmed deposit it sent; without
// one only the controller may record contributions, optionally attributing
// them to another account.
func (s *Server) postContribution(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req ContributionRequest
	if err := decodeBody(body, &req); err != nil {
		writeError(w, err)
		return
	}

	var c *ledger.Contribution
	var err error
	if s.deposits != nil {
		c, err = s.contributeDeposit(r, caller, &req)
	} else {
		c, err = s.contributeAsController(r, caller, &req)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contributionResponse(c))
}

func (s *Server) contributeDeposit(r *http.Request, caller account.Address, req *ContributionRequest) (*ledger.Contribution, error) {
	if req.TxHash == "" {
		return nil, fmt.Errorf("%w: tx_hash is required", ErrInvalidRequest)
	}
	if req.Contributor != nil {
		return nil, fmt.Errorf("%w: contributor is implied by the deposit", ErrInvalidRequest)
	}
	d, err := s.deposits.VerifyDeposit(r.Context(), req.TxHash)
	switch {
	case errors.Is(err, payout.ErrDepositNotFound),
		errors.Is(err, payout.ErrDepositNotConfirmed),
		errors.Is(err, payout.ErrDepositMismatch):
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	case err != nil:
		return nil, err
	}
	if d.From != caller {
		return nil, fmt.Errorf("%w: deposit %s was sent by %s", ledger.ErrNotAuthorized, d.TxHash, d.From)
	}
	if req.Amount != "" && req.Amount != d.Value.Dec() {
		return nil, fmt.Errorf("%w: amount %s does not match deposit value %s", ErrInvalidRequest, req.Amount, d.Value.Dec())
	}
	return s.ledger.ContributeDeposit(r.Context(), d, req.Reference)
}

func (s *Server) contributeAsController(r *http.Request, caller account.Address, req *ContributionRequest) (*ledger.Contribution, error) {
	controller, err := s.ledger.Controller(r.Context())
	if err != nil {
		return nil, err
	}
	if caller != controller {
		return nil, fmt.Errorf("%w: %s cannot record unverified contributions", ledger.ErrNotAuthorized, caller)
	}
	if req.TxHash != "" {
		return nil, fmt.Errorf("%w: deposit verification is not enabled", ErrInvalidRequest)
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %w", ErrInvalidRequest, req.Amount, err)
	}
	contributor := caller
	if req.Contributor != nil {
		contributor = *req.Contributor
	}
	return s.ledger.Contribute(r.Context(), contributor, amount, req.Reference)
}

func (s *Server) postWithdrawal(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	wd, err := s.ledger.Withdraw(r.Context(), caller)
	if err != nil {
		if wd != nil {
			// Settled but not paid out.
			writeJSON(w, statusFor(ledger.CodeTransferFailed), &ErrorResponse{
				Code:       ledger.Code(err),
				Message:    err.Error(),
				Withdrawal: withdrawalResponse(wd),
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawalResponse(wd))
}
