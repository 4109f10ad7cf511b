package account

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Address parsing ---

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"lowercase with prefix", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
		{"uppercase without prefix", "5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", false},
		{"mixed case", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"upper prefix", "0X5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
		{"surrounding space", "  0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed\n", false},
		{"too short", "0x5aaeb6", true},
		{"too long", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed00", true},
		{"not hex", "0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddress(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0x"+hex.EncodeToString(a[:]))
		})
	}
}

func TestParseAddress_CaseInsensitiveEquality(t *testing.T) {
	lower := MustParseAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	upper := MustParseAddress("0xFB6916095CA1DF60BB79CE92CE3EA74C37C5D359")
	assert.Equal(t, lower, upper)
}

func TestMustParseAddress_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseAddress("nope") })
}

func TestBytesToAddress(t *testing.T) {
	_, err := BytesToAddress([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	raw := make([]byte, AddressSize)
	raw[19] = 0x42
	a, err := BytesToAddress(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), a[19])
	assert.False(t, a.IsZero())
	assert.True(t, Zero.IsZero())
}

// --- Checksummed display ---

func TestAddressHex_Checksum(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		t.Run(v, func(t *testing.T) {
			a := MustParseAddress(strings.ToLower(v))
			assert.Equal(t, v, a.Hex())
			assert.Equal(t, v, a.String())
		})
	}
}

func TestAddress_TextRoundTrip(t *testing.T) {
	a := MustParseAddress("0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb")

	data, err := json.Marshal(struct {
		Account Address `json:"account"`
	}{a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"account":"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"}`, string(data))

	var decoded struct {
		Account Address `json:"account"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, a, decoded.Account)

	var bad Address
	assert.ErrorIs(t, bad.UnmarshalText([]byte("0x12")), ErrInvalidAddress)
}

func TestAddressBytes_IsCopy(t *testing.T) {
	a := MustParseAddress("0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb")
	b := a.Bytes()
	b[0] = 0xff
	assert.Equal(t, byte(0xdb), a[0])
}

// --- Keys ---

func TestKeccak256_Empty(t *testing.T) {
	assert.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(Keccak256()))
}

func TestFromPrivateKey_KnownVector(t *testing.T) {
	priv, _ := ec.PrivateKeyFromBytes(big.NewInt(1).Bytes())
	a, err := FromPrivateKey(priv)
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", a.Hex())
}

func TestFromPublicKey_Nil(t *testing.T) {
	_, err := FromPublicKey(nil)
	assert.ErrorIs(t, err, ErrNilParam)

	_, err = FromPrivateKey(nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestSignVerifyDigest(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	want, err := FromPrivateKey(priv)
	require.NoError(t, err)

	digest := Keccak256([]byte("withdraw"))
	sig, err := SignDigest(priv, digest)
	require.NoError(t, err)

	got, err := VerifyDigest(priv.PubKey().Compressed(), digest, sig)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("other digest", func(t *testing.T) {
		_, err := VerifyDigest(priv.PubKey().Compressed(), Keccak256([]byte("contribute")), sig)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := ec.NewPrivateKey()
		require.NoError(t, err)
		_, err = VerifyDigest(other.PubKey().Compressed(), digest, sig)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("garbage signature", func(t *testing.T) {
		_, err := VerifyDigest(priv.PubKey().Compressed(), digest, []byte{0x30, 0x01})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("garbage public key", func(t *testing.T) {
		_, err := VerifyDigest([]byte{0x02, 0x01}, digest, sig)
		assert.ErrorIs(t, err, ErrInvalidPublicKey)
	})
}

func TestSignDigest_BadInput(t *testing.T) {
	_, err := SignDigest(nil, make([]byte, 32))
	assert.ErrorIs(t, err, ErrNilParam)

	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	_, err = SignDigest(priv, []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
