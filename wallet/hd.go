package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/splitledger/account"
)

const (
	// BIP44 path constants.
	PurposeBIP44     = 44
	CoinTypeEthereum = 60
	DefaultAccount   = 0
	ExternalChain    = 0

	// MaxIndex is the largest non-hardened BIP32 child index.
	MaxIndex = 1<<31 - 1

	// Hardened is the BIP32 hardened offset.
	Hardened = 0x80000000
)

// Wallet derives account keys from a BIP39 seed.
type Wallet struct {
	masterKey *bip32.ExtendedKey
}

// Key is a derived signing key and the account address it controls.
type Key struct {
	PrivateKey *ec.PrivateKey  `json:"-"`
	PublicKey  *ec.PublicKey   `json:"-"`
	Address    account.Address `json:"address"`
	Index      uint32          `json:"index"`
	Path       string          `json:"path"`
}

// NewWallet creates a Wallet from a BIP39 seed.
func NewWallet(seed []byte) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	// The version bytes only affect serialized xprv/xpub strings, which are
	// never produced here.
	masterKey, err := bip32.NewMaster(seed, &chaincfg.MainNet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Wallet{masterKey: masterKey}, nil
}

// FromMnemonic is SeedFromMnemonic followed by NewWallet.
func FromMnemonic(mnemonic, passphrase string) (*Wallet, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return NewWallet(seed)
}

// Derive returns the key at m/44'/60'/0'/0/index.
func (w *Wallet) Derive(index uint32) (*Key, error) {
	if index > MaxIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	path := []struct {
		child uint32
		what  string
	}{
		{PurposeBIP44 + Hardened, "purpose"},
		{CoinTypeEthereum + Hardened, "coin type"},
		{DefaultAccount + Hardened, "account"},
		{ExternalChain, "chain"},
		{index, "index"},
	}

	current := w.masterKey
	for _, step := range path {
		next, err := current.Child(step.child)
		if err != nil {
			return nil, fmt.Errorf("%w: %s derivation: %w", ErrDerivationFailed, step.what, err)
		}
		current = next
	}

	priv, err := current.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract EC private key: %w", ErrDerivationFailed, err)
	}
	addr, err := account.FromPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	return &Key{
		PrivateKey: priv,
		PublicKey:  priv.PubKey(),
		Address:    addr,
		Index:      index,
		Path:       fmt.Sprintf("m/44'/60'/0'/0/%d", index),
	}, nil
}
