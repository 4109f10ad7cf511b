package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/ledger"
	"github.com/bitfsorg/splitledger/splitter"
)

// APIError is a non-2xx response. It unwraps to the ledger sentinel named
// by Code, so errors.Is(err, ledger.ErrNotAuthorized) works across the wire.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap returns the ledger sentinel for Code, or nil.
func (e *APIError) Unwrap() error {
	return ledger.ErrorForCode(e.Code)
}

// Client talks to a Server. Mutating calls need a signing key; the key's
// account is the caller.
type Client struct {
	baseURL    string
	key        *ec.PrivateKey
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a Client for baseURL. key may be nil for read-only use.
func NewClient(baseURL string, key *ec.PrivateKey) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Address returns the account of the signing key.
func (c *Client) Address() (account.Address, error) {
	if c.key == nil {
		return account.Zero, ErrNoKey
	}
	return account.FromPrivateKey(c.key)
}

// do sends a request and decodes a 2xx response into out. Signed requests
// are signed over the exact body bytes.
func (c *Client) do(ctx context.Context, method, path string, in, out any, signed bool) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		if c.key == nil {
			return ErrNoKey
		}
		if err := SignRequest(req, c.key, body, c.now()); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er ErrorResponse
		if err := json.Unmarshal(data, &er); err != nil || er.Code == "" {
			return &APIError{Status: resp.StatusCode, Code: ledger.CodeInternal, Message: strings.TrimSpace(string(data))}
		}
		apiErr := &APIError{Status: resp.StatusCode, Code: er.Code, Message: er.Message}
		if er.Withdrawal != nil {
			if w, ok := out.(*WithdrawalResponse); ok {
				*w = *er.Withdrawal
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// Beneficiaries returns the current configuration.
func (c *Client) Beneficiaries(ctx context.Context) ([]splitter.Beneficiary, error) {
	var resp ConfigurationResponse
	if err := c.do(ctx, http.MethodGet, "/v1/beneficiaries", nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Beneficiaries, nil
}

// Totals returns the accumulators of addr.
func (c *Client) Totals(ctx context.Context, addr account.Address) (*TotalsResponse, error) {
	var resp TotalsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+addr.Hex(), nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Controller returns the controller account.
func (c *Client) Controller(ctx context.Context) (account.Address, error) {
	var resp ControllerResponse
	if err := c.do(ctx, http.MethodGet, "/v1/controller", nil, &resp, false); err != nil {
		return account.Zero, err
	}
	return resp.Controller, nil
}

// Pool returns the pooled value.
func (c *Client) Pool(ctx context.Context) (*uint256.Int, error) {
	var resp PoolResponse
	if err := c.do(ctx, http.MethodGet, "/v1/pool", nil, &resp, false); err != nil {
		return nil, err
	}
	p, err := uint256.FromDecimal(resp.Pool)
	if err != nil {
		return nil, fmt.Errorf("api: decode pool %q: %w", resp.Pool, err)
	}
	return p, nil
}

// Events returns up to limit events after since.
func (c *Client) Events(ctx context.Context, since uint64, limit int) (*EventsResponse, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatUint(since, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp EventsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/events?"+q.Encode(), nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Audit runs an audit on the server.
func (c *Client) Audit(ctx context.Context) (*AuditResponse, error) {
	var resp AuditResponse
	if err := c.do(ctx, http.MethodGet, "/v1/audit", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Contribute credits the custody deposit txHash, sent from the client's
// account, as a contribution.
func (c *Client) Contribute(ctx context.Context, txHash, reference string) (*ContributionResponse, error) {
	if txHash == "" {
		return nil, fmt.Errorf("%w: empty transaction hash", ErrInvalidRequest)
	}
	return c.contribute(ctx, &ContributionRequest{TxHash: txHash, Reference: reference})
}

// Record records amount received out of band as a contribution from
// contributor. Only the controller may call it, and only on servers that do
// not verify deposits. A zero contributor attributes it to the controller.
func (c *Client) Record(ctx context.Context, contributor account.Address, amount *uint256.Int, reference string) (*ContributionResponse, error) {
	if amount == nil {
		return nil, fmt.Errorf("%w: nil amount", ErrInvalidRequest)
	}
	req := &ContributionRequest{Amount: amount.Dec(), Reference: reference}
	if !contributor.IsZero() {
		req.Contributor = &contributor
	}
	return c.contribute(ctx, req)
}

func (c *Client) contribute(ctx context.Context, req *ContributionRequest) (*ContributionResponse, error) {
	var resp ContributionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/contributions", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Withdraw withdraws the client's pending balance. When the payout fails
// after settlement, both the settled withdrawal and an error unwrapping to
// ledger.ErrTransferFailed are returned.
func (c *Client) Withdraw(ctx context.Context) (*WithdrawalResponse, error) {
	var resp WithdrawalResponse
	if err := c.do(ctx, http.MethodPost, "/v1/withdrawals", nil, &resp, true); err != nil {
		if resp.Seq != 0 {
			return &resp, err
		}
		return nil, err
	}
	return &resp, nil
}

// Reconfigure replaces the beneficiary configuration. The client's account
// must be the controller.
func (c *Client) Reconfigure(ctx context.Context, bs []splitter.Beneficiary) error {
	return c.do(ctx, http.MethodPut, "/v1/beneficiaries", &ReconfigureRequest{Beneficiaries: bs}, nil, true)
}
