package splitter

import (
	"fmt"

	"github.com/holiman/uint256"
)

var totalShares = uint256.NewInt(TotalShares)

// Split divides amount among bs in configuration order. Every entry but the
// last is credited floor(amount * shares / 10000); the last entry takes what
// remains, so the credits always sum to amount.
func Split(amount *uint256.Int, bs []Beneficiary) ([]Credit, error) {
	if amount == nil || amount.IsZero() {
		return nil, fmt.Errorf("%w: zero amount", ErrInvalidParams)
	}
	if len(bs) == 0 {
		return nil, fmt.Errorf("%w: no beneficiaries", ErrInvalidConfiguration)
	}

	// amount = q*10000 + r, so floor(amount*s/10000) = q*s + floor(r*s/10000)
	// and no intermediate exceeds amount.
	var q, r uint256.Int
	q.Div(amount, totalShares)
	r.Mod(amount, totalShares)

	credits := make([]Credit, len(bs))
	var distributed uint256.Int

	for i, b := range bs {
		credits[i].Address = b.Address
		if i == len(bs)-1 {
			// Last beneficiary absorbs the rounding dust.
			if distributed.Gt(amount) {
				return nil, fmt.Errorf("%w: shares exceed %d", ErrInvalidConfiguration, TotalShares)
			}
			credits[i].Amount.Sub(amount, &distributed)
			break
		}
		shares := uint256.NewInt(uint64(b.Shares))

		var whole, part uint256.Int
		whole.Mul(&q, shares)
		part.Mul(&r, shares)
		part.Div(&part, totalShares)

		credits[i].Amount.Add(&whole, &part)
		distributed.Add(&distributed, &credits[i].Amount)
	}

	return credits, nil
}
