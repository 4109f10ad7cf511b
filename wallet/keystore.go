package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bitfsorg/splitledger/account"
)

// KeystoreVersion is the current keystore file format.
const KeystoreVersion = 1

// Keystore is the on-disk form of a signing key: the encrypted BIP39 seed
// plus the derivation index. Address is stored in clear so it can be shown
// without the password.
type Keystore struct {
	Version int             `json:"version"`
	Address account.Address `json:"address"`
	Index   uint32          `json:"index"`
	Seed    []byte          `json:"seed"` // EncryptSeed output
}

// CreateKeystore derives the key at index from seed, encrypts the seed and
// writes the keystore to path. It refuses to overwrite an existing file.
func CreateKeystore(path string, seed []byte, index uint32, password string) (*Key, error) {
	w, err := NewWallet(seed)
	if err != nil {
		return nil, err
	}
	key, err := w.Derive(index)
	if err != nil {
		return nil, err
	}
	encrypted, err := EncryptSeed(seed, password)
	if err != nil {
		return nil, err
	}

	ks := &Keystore{
		Version: KeystoreVersion,
		Address: key.Address,
		Index:   index,
		Seed:    encrypted,
	}
	if err := ks.write(path); err != nil {
		return nil, err
	}
	return key, nil
}

func (ks *Keystore) write(path string) error {
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return fmt.Errorf("wallet: marshal keystore: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("wallet: create keystore dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeystoreExists, path)
		}
		return fmt.Errorf("wallet: create keystore: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("wallet: write keystore: %w", err)
	}
	return f.Close()
}

// ReadKeystore loads a keystore file without decrypting it.
func ReadKeystore(path string) (*Keystore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeystoreNotFound, path)
		}
		return nil, fmt.Errorf("wallet: read keystore: %w", err)
	}
	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeystore, err)
	}
	if ks.Version != KeystoreVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidKeystore, ks.Version)
	}
	if len(ks.Seed) == 0 {
		return nil, fmt.Errorf("%w: missing seed", ErrInvalidKeystore)
	}
	return &ks, nil
}

// Unlock decrypts the seed and re-derives the key. The derived address must
// match the one recorded in the file.
func (ks *Keystore) Unlock(password string) (*Key, error) {
	seed, err := DecryptSeed(ks.Seed, password)
	if err != nil {
		return nil, err
	}
	w, err := NewWallet(seed)
	if err != nil {
		return nil, err
	}
	key, err := w.Derive(ks.Index)
	if err != nil {
		return nil, err
	}
	if key.Address != ks.Address {
		return nil, fmt.Errorf("%w: address %s does not match derived %s",
			ErrInvalidKeystore, ks.Address, key.Address)
	}
	return key, nil
}

// OpenKeystore reads and unlocks the keystore at path.
func OpenKeystore(path, password string) (*Key, error) {
	ks, err := ReadKeystore(path)
	if err != nil {
		return nil, err
	}
	return ks.Unlock(password)
}
