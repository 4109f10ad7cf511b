package wallet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/splitledger/account"
)

const testMnemonic = "test test test test test test test test test test test junk"

// --- Mnemonic ---

func TestGenerateMnemonic(t *testing.T) {
	tests := []struct {
		bits  int
		words int
	}{
		{Mnemonic12Words, 12},
		{Mnemonic24Words, 24},
	}
	for _, tt := range tests {
		m, err := GenerateMnemonic(tt.bits)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(m), tt.words)
		assert.True(t, ValidateMnemonic(m))
	}

	_, err := GenerateMnemonic(192)
	assert.ErrorIs(t, err, ErrInvalidEntropy)
}

func TestSeedFromMnemonic(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.Len(t, seed, 64)

	withPass, err := SeedFromMnemonic(testMnemonic, "extra")
	require.NoError(t, err)
	assert.NotEqual(t, seed, withPass)

	_, err = SeedFromMnemonic("not a real mnemonic at all", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

// --- Seed encryption ---

func TestEncryptDecryptSeed(t *testing.T) {
	seed := []byte("0123456789abcdef0123456789abcdef")
	enc, err := EncryptSeed(seed, "hunter2")
	require.NoError(t, err)
	assert.Len(t, enc, SaltLen+NonceLen+len(seed)+ChecksumLen+16)

	dec, err := DecryptSeed(enc, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, seed, dec)

	t.Run("wrong password", func(t *testing.T) {
		_, err := DecryptSeed(enc, "hunter3")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("tampered", func(t *testing.T) {
		bad := append([]byte{}, enc...)
		bad[len(bad)-1] ^= 0xff
		_, err := DecryptSeed(bad, "hunter2")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecryptSeed(enc[:10], "hunter2")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestEncryptSeed_Empty(t *testing.T) {
	_, err := EncryptSeed(nil, "pw")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

// --- Derivation ---

func TestDerive_KnownVectors(t *testing.T) {
	w, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	vectors := []string{
		"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}
	for i, want := range vectors {
		key, err := w.Derive(uint32(i))
		require.NoError(t, err)
		assert.Equal(t, want, key.Address.Hex())
		assert.Equal(t, uint32(i), key.Index)

		fromPriv, err := account.FromPrivateKey(key.PrivateKey)
		require.NoError(t, err)
		assert.Equal(t, key.Address, fromPriv)
	}
}

func TestDerive_Deterministic(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	w1, err := NewWallet(seed)
	require.NoError(t, err)
	w2, err := NewWallet(seed)
	require.NoError(t, err)

	k1, err := w1.Derive(7)
	require.NoError(t, err)
	k2, err := w2.Derive(7)
	require.NoError(t, err)
	assert.Equal(t, k1.Address, k2.Address)
	assert.Equal(t, "m/44'/60'/0'/0/7", k1.Path)

	k3, err := w1.Derive(8)
	require.NoError(t, err)
	assert.NotEqual(t, k1.Address, k3.Address)
}

func TestDerive_IndexOutOfRange(t *testing.T) {
	w, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	_, err = w.Derive(MaxIndex + 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNewWallet_EmptySeed(t *testing.T) {
	_, err := NewWallet(nil)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

// --- Keystore ---

func TestKeystore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "keystore.json")
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	created, err := CreateKeystore(path, seed, 1, "pw")
	require.NoError(t, err)
	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", created.Address.Hex())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	ks, err := ReadKeystore(path)
	require.NoError(t, err)
	assert.Equal(t, created.Address, ks.Address)

	opened, err := OpenKeystore(path, "pw")
	require.NoError(t, err)
	assert.Equal(t, created.Address, opened.Address)
	assert.Zero(t, created.PrivateKey.D.Cmp(opened.PrivateKey.D))

	_, err = OpenKeystore(path, "wrong")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = CreateKeystore(path, seed, 0, "pw")
	assert.ErrorIs(t, err, ErrKeystoreExists)
}

func TestKeystore_AddressMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	_, err = CreateKeystore(path, seed, 0, "pw")
	require.NoError(t, err)

	ks, err := ReadKeystore(path)
	require.NoError(t, err)
	ks.Index = 1
	_, err = ks.Unlock("pw")
	assert.ErrorIs(t, err, ErrInvalidKeystore)
}

func TestReadKeystore_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadKeystore(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrKeystoreNotFound)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{"), 0600))
	_, err = ReadKeystore(garbage)
	assert.ErrorIs(t, err, ErrInvalidKeystore)

	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, []byte(`{"version":9,"seed":"AA=="}`), 0600))
	_, err = ReadKeystore(future)
	assert.ErrorIs(t, err, ErrInvalidKeystore)
}
