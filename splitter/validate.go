package splitter

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
)

// ValidateBeneficiaries checks a complete beneficiary configuration and
// returns an error wrapping ErrInvalidConfiguration on the first violation.
func ValidateBeneficiaries(bs []Beneficiary) error {
	if len(bs) == 0 {
		return fmt.Errorf("%w: no beneficiaries", ErrInvalidConfiguration)
	}

	seen := make(map[account.Address]int, len(bs))
	var total uint32

	for i, b := range bs {
		if b.Address.IsZero() {
			return fmt.Errorf("%w: beneficiary %d has the zero address", ErrInvalidConfiguration, i)
		}
		if b.Shares == 0 || b.Shares > TotalShares {
			return fmt.Errorf("%w: beneficiary %d share %d outside (0, %d]", ErrInvalidConfiguration, i, b.Shares, TotalShares)
		}
		// Addresses are compared as bytes, so hex case never matters.
		if prev, ok := seen[b.Address]; ok {
			return fmt.Errorf("%w: address %s repeated at %d and %d", ErrInvalidConfiguration, b.Address, prev, i)
		}
		seen[b.Address] = i
		total += uint32(b.Shares)
	}

	if total != TotalShares {
		return fmt.Errorf("%w: shares sum to %d, want %d", ErrInvalidConfiguration, total, TotalShares)
	}
	return nil
}

// ValidateConservation checks that the credits of one split add up to the
// contributed amount exactly.
func ValidateConservation(amount *uint256.Int, credits []Credit) error {
	var sum uint256.Int
	for i := range credits {
		if _, overflow := sum.AddOverflow(&sum, &credits[i].Amount); overflow {
			return fmt.Errorf("%w: credit sum overflows", ErrConservationViolation)
		}
	}
	if !sum.Eq(amount) {
		return fmt.Errorf("%w: credits %s, amount %s", ErrConservationViolation, sum.Dec(), amount.Dec())
	}
	return nil
}
