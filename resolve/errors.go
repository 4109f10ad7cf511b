package resolve

import "errors"

var (
	// ErrDNSLookupFailed indicates a DNS TXT lookup failed.
	ErrDNSLookupFailed = errors.New("resolve: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not
	// authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("resolve: DNSSEC validation failed")

	// ErrNoRecord indicates the domain publishes no splitledger= record.
	ErrNoRecord = errors.New("resolve: no splitledger record")

	// ErrInvalidEntry indicates a beneficiary file entry is malformed.
	ErrInvalidEntry = errors.New("resolve: invalid beneficiary entry")

	// ErrInvalidFile indicates the beneficiary file cannot be read or parsed.
	ErrInvalidFile = errors.New("resolve: invalid beneficiary file")
)
