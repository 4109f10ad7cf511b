package splitter

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/splitledger/account"
)

const (
	registryHeaderSize = 4                       // num_entries(4)
	registryEntrySize  = account.AddressSize + 2 // address(20) + bps(2)
	entitlementSize    = 64                      // pending(32) + withdrawn(32)
	amountSize         = 32
)

// SerializeBeneficiaries encodes a beneficiary list to binary format.
func SerializeBeneficiaries(bs []Beneficiary) ([]byte, error) {
	if len(bs) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d entries", ErrTooManyEntries, len(bs))
	}
	buf := make([]byte, registryHeaderSize+registryEntrySize*len(bs))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(bs)))

	offset := registryHeaderSize
	for _, b := range bs {
		copy(buf[offset:offset+account.AddressSize], b.Address[:])
		offset += account.AddressSize
		binary.BigEndian.PutUint16(buf[offset:offset+2], b.Shares)
		offset += 2
	}
	return buf, nil
}

// DeserializeBeneficiaries decodes a list written by SerializeBeneficiaries.
func DeserializeBeneficiaries(data []byte) ([]Beneficiary, error) {
	if len(data) < registryHeaderSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidRegistryData, len(data))
	}
	n := int(binary.BigEndian.Uint32(data[0:4]))
	if want := registryHeaderSize + registryEntrySize*n; len(data) != want {
		return nil, fmt.Errorf("%w: expected %d bytes for %d entries, got %d",
			ErrInvalidRegistryData, want, n, len(data))
	}

	bs := make([]Beneficiary, n)
	offset := registryHeaderSize
	for i := 0; i < n; i++ {
		copy(bs[i].Address[:], data[offset:offset+account.AddressSize])
		offset += account.AddressSize
		bs[i].Shares = binary.BigEndian.Uint16(data[offset : offset+2])
		offset += 2
	}
	return bs, nil
}

// SerializeEntitlement encodes an entitlement record as two 32-byte
// big-endian amounts.
func SerializeEntitlement(e *Entitlement) []byte {
	buf := make([]byte, entitlementSize)
	pending := e.Pending.Bytes32()
	withdrawn := e.Withdrawn.Bytes32()
	copy(buf[0:32], pending[:])
	copy(buf[32:64], withdrawn[:])
	return buf
}

// DeserializeEntitlement decodes a record written by SerializeEntitlement.
func DeserializeEntitlement(data []byte) (*Entitlement, error) {
	if len(data) != entitlementSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidEntitlementData, entitlementSize, len(data))
	}
	e := &Entitlement{}
	e.Pending.SetBytes32(data[0:32])
	e.Withdrawn.SetBytes32(data[32:64])
	return e, nil
}

// SerializeAmount encodes an amount as 32 big-endian bytes.
func SerializeAmount(a *uint256.Int) []byte {
	b := a.Bytes32()
	return b[:]
}

// DeserializeAmount decodes an amount written by SerializeAmount.
func DeserializeAmount(data []byte) (*uint256.Int, error) {
	if len(data) != amountSize {
		return nil, fmt.Errorf("%w: amount must be %d bytes, got %d", ErrInvalidEntitlementData, amountSize, len(data))
	}
	return new(uint256.Int).SetBytes32(data), nil
}
