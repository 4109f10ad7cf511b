// Package resolve turns beneficiary files into a validated beneficiary
// configuration, resolving domain names to account addresses through DNS.
//
// A domain publishes its payout address in a TXT record:
//
//	_splitledger.example.org. TXT "splitledger=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
package resolve

import (
	"fmt"
	"net"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/bitfsorg/splitledger/account"
)

var log = logging.Logger("splitledger/resolve")

const (
	// RecordLabel is prepended to the domain for the TXT lookup.
	RecordLabel = "_splitledger."

	// RecordPrefix marks the TXT value carrying the address.
	RecordPrefix = "splitledger="
)

// DNSResolver performs TXT lookups. Tests substitute their own.
type DNSResolver interface {
	LookupTXT(name string) ([]string, error)
}

type netResolver struct{}

func (netResolver) LookupTXT(name string) ([]string, error) {
	return net.LookupTXT(name)
}

// DefaultDNSResolver uses the system resolver without DNSSEC checks.
var DefaultDNSResolver DNSResolver = netResolver{}

// ResolveAddress looks up the account address published by domain.
func ResolveAddress(domain string) (account.Address, error) {
	return ResolveAddressWithResolver(domain, DefaultDNSResolver)
}

// ResolveAddressWithResolver is ResolveAddress with an explicit resolver.
// The first TXT value carrying RecordPrefix wins.
func ResolveAddressWithResolver(domain string, resolver DNSResolver) (account.Address, error) {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if domain == "" {
		return account.Zero, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}

	name := RecordLabel + domain
	txts, err := resolver.LookupTXT(name)
	if err != nil {
		return account.Zero, fmt.Errorf("%w: TXT lookup for %s: %w", ErrDNSLookupFailed, name, err)
	}

	for _, txt := range txts {
		txt = strings.TrimSpace(txt)
		if !strings.HasPrefix(txt, RecordPrefix) {
			continue
		}
		addr, err := account.ParseAddress(strings.TrimPrefix(txt, RecordPrefix))
		if err != nil {
			return account.Zero, fmt.Errorf("%w: %s: %w", ErrInvalidEntry, name, err)
		}
		return addr, nil
	}
	return account.Zero, fmt.Errorf("%w: %s", ErrNoRecord, name)
}
