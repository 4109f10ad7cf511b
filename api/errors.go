package api

import "errors"

var (
	// ErrMissingAuth indicates a mutating request lacks the signature headers.
	ErrMissingAuth = errors.New("api: missing authentication headers")

	// ErrBadSignature indicates the request signature does not verify.
	ErrBadSignature = errors.New("api: bad request signature")

	// ErrStaleRequest indicates the signed timestamp is outside the skew window.
	ErrStaleRequest = errors.New("api: request timestamp outside allowed window")

	// ErrReplayed indicates the signature was already accepted once.
	ErrReplayed = errors.New("api: replayed request")

	// ErrInvalidRequest indicates a malformed request body or parameter.
	ErrInvalidRequest = errors.New("api: invalid request")

	// ErrNoKey indicates a client without a signing key attempted a mutating call.
	ErrNoKey = errors.New("api: client has no signing key")
)

// CodeUnauthenticated is the error code for failed request authentication.
const CodeUnauthenticated = "unauthenticated"
