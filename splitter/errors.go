package splitter

import "errors"

var (
	// ErrInvalidConfiguration indicates a beneficiary list is empty, has a
	// share outside (0, 10000], does not sum to 10000, repeats an address,
	// or names the zero address.
	ErrInvalidConfiguration = errors.New("splitter: invalid beneficiary configuration")

	// ErrInvalidParams indicates a zero contribution or an amount that would
	// overflow a 256-bit balance.
	ErrInvalidParams = errors.New("splitter: invalid parameters")

	// ErrConservationViolation indicates split credits do not add up to the
	// contributed amount.
	ErrConservationViolation = errors.New("splitter: split conservation violated")

	// ErrInvalidRegistryData indicates serialized beneficiary data is malformed.
	ErrInvalidRegistryData = errors.New("splitter: invalid registry data")

	// ErrInvalidEntitlementData indicates serialized entitlement data is malformed.
	ErrInvalidEntitlementData = errors.New("splitter: invalid entitlement data")

	// ErrTooManyEntries indicates a beneficiary list cannot be encoded.
	ErrTooManyEntries = errors.New("splitter: too many entries")
)
