package resolve

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bitfsorg/splitledger/account"
	"github.com/bitfsorg/splitledger/splitter"
)

// Entry is one line of a beneficiary file. Exactly one of Address and
// Domain is set.
type Entry struct {
	Address string `json:"address,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Shares  uint16 `json:"bps"`
	Label   string `json:"label,omitempty"`
}

// Resolved pairs an entry with the address it resolved to.
type Resolved struct {
	Entry
	Beneficiary splitter.Beneficiary
}

// LoadBeneficiaryFile reads a JSON array of entries from path and resolves
// it with ResolveEntries.
func LoadBeneficiaryFile(path string, resolver DNSResolver) ([]Resolved, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFile, path, err)
	}
	return ResolveEntries(entries, resolver)
}

// ResolveEntries turns entries into beneficiaries in file order and
// validates the result as a complete configuration.
func ResolveEntries(entries []Entry, resolver DNSResolver) ([]Resolved, error) {
	out := make([]Resolved, len(entries))
	for i, e := range entries {
		var (
			addr account.Address
			err  error
		)
		switch {
		case e.Address != "" && e.Domain != "":
			return nil, fmt.Errorf("%w: entry %d sets both address and domain", ErrInvalidEntry, i)
		case e.Address != "":
			addr, err = account.ParseAddress(e.Address)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidEntry, i, err)
			}
		case e.Domain != "":
			addr, err = ResolveAddressWithResolver(e.Domain, resolver)
			if err != nil {
				return nil, fmt.Errorf("entry %d (%s): %w", i, e.Domain, err)
			}
			log.Infow("resolved beneficiary", "domain", e.Domain, "address", addr)
		default:
			return nil, fmt.Errorf("%w: entry %d has neither address nor domain", ErrInvalidEntry, i)
		}
		out[i] = Resolved{Entry: e, Beneficiary: splitter.Beneficiary{Address: addr, Shares: e.Shares}}
	}

	if err := splitter.ValidateBeneficiaries(Beneficiaries(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// Beneficiaries strips the file metadata.
func Beneficiaries(rs []Resolved) []splitter.Beneficiary {
	bs := make([]splitter.Beneficiary, len(rs))
	for i := range rs {
		bs[i] = rs[i].Beneficiary
	}
	return bs
}
