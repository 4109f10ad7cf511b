package api

import (
	"container/heap"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/splitledger/account"
)

// Signed request headers.
const (
	HeaderPubKey    = "X-Split-Pubkey"
	HeaderTimestamp = "X-Split-Timestamp"
	HeaderSignature = "X-Split-Signature"
)

// DefaultSkewWindow bounds how far a signed timestamp may drift from the
// server clock in either direction.
const DefaultSkewWindow = 5 * time.Minute

// AuthHeaders holds the signature headers of a request.
type AuthHeaders struct {
	PubKey    []byte
	Timestamp int64
	Signature []byte
}

// SigningDigest is the keccak256 digest a caller signs:
//
//	METHOD "\n" PATH "\n" TIMESTAMP "\n" BODY
func SigningDigest(method, path string, timestamp int64, body []byte) []byte {
	return account.Keccak256(
		[]byte(method), []byte("\n"),
		[]byte(path), []byte("\n"),
		[]byte(strconv.FormatInt(timestamp, 10)), []byte("\n"),
		body,
	)
}

// SignRequest sets the signature headers on req for body, signed with key
// at time now. body must be the exact bytes sent.
func SignRequest(req *http.Request, key *ec.PrivateKey, body []byte, now time.Time) error {
	ts := now.Unix()
	sig, err := account.SignDigest(key, SigningDigest(req.Method, req.URL.Path, ts, body))
	if err != nil {
		return err
	}
	req.Header.Set(HeaderPubKey, hex.EncodeToString(key.PubKey().Compressed()))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSignature, hex.EncodeToString(sig))
	return nil
}

// ParseAuthHeaders extracts the signature headers from h.
func ParseAuthHeaders(h http.Header) (*AuthHeaders, error) {
	pubHex := h.Get(HeaderPubKey)
	tsStr := h.Get(HeaderTimestamp)
	sigHex := h.Get(HeaderSignature)
	if pubHex == "" || tsStr == "" || sigHex == "" {
		return nil, ErrMissingAuth
	}

	pub, err := hex.DecodeString(pubHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadSignature, HeaderPubKey, err)
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadSignature, HeaderTimestamp, err)
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadSignature, HeaderSignature, err)
	}
	return &AuthHeaders{PubKey: pub, Timestamp: ts, Signature: sig}, nil
}

// Verifier authenticates signed requests and remembers accepted signatures
// for the length of the skew window.
type Verifier struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	seen    map[string]struct{} // signature hex
	expires expiryQueue
}

// NewVerifier creates a Verifier. A zero window selects DefaultSkewWindow
// and a nil clock time.Now.
func NewVerifier(window time.Duration, now func() time.Time) *Verifier {
	if window <= 0 {
		window = DefaultSkewWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{window: window, now: now, seen: make(map[string]struct{})}
}

// Verify checks the signature of r over body and returns the caller's
// account address.
func (v *Verifier) Verify(r *http.Request, body []byte) (account.Address, error) {
	h, err := ParseAuthHeaders(r.Header)
	if err != nil {
		return account.Zero, err
	}

	now := v.now()
	signed := time.Unix(h.Timestamp, 0)
	if signed.Before(now.Add(-v.window)) || signed.After(now.Add(v.window)) {
		return account.Zero, fmt.Errorf("%w: %d", ErrStaleRequest, h.Timestamp)
	}

	caller, err := account.VerifyDigest(h.PubKey, SigningDigest(r.Method, r.URL.Path, h.Timestamp, body), h.Signature)
	if err != nil {
		return account.Zero, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}

	key := hex.EncodeToString(h.Signature)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prune(now)
	if _, dup := v.seen[key]; dup {
		return account.Zero, ErrReplayed
	}
	// Remembered until its timestamp leaves the window.
	v.seen[key] = struct{}{}
	heap.Push(&v.expires, seenSignature{key: key, expiry: signed.Add(v.window)})
	return caller, nil
}

// prune forgets signatures whose timestamps have left the window. Callers
// hold v.mu.
func (v *Verifier) prune(now time.Time) {
	for v.expires.Len() > 0 && now.After(v.expires[0].expiry) {
		old := heap.Pop(&v.expires).(seenSignature)
		delete(v.seen, old.key)
	}
}

// remembered returns how many signatures the replay cache holds.
func (v *Verifier) remembered() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}

type seenSignature struct {
	key    string
	expiry time.Time
}

var _ heap.Interface = (*expiryQueue)(nil)

// expiryQueue orders remembered signatures by expiry, earliest first.
type expiryQueue []seenSignature

func (q expiryQueue) Len() int           { return len(q) }
func (q expiryQueue) Less(i, j int) bool { return q[i].expiry.Before(q[j].expiry) }
func (q expiryQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *expiryQueue) Push(x any) { *q = append(*q, x.(seenSignature)) }

func (q *expiryQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
