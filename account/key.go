package account

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// FromPublicKey derives the account address controlled by pub.
func FromPublicKey(pub *ec.PublicKey) (Address, error) {
	var a Address
	if pub == nil || pub.X == nil || pub.Y == nil {
		return a, fmt.Errorf("%w: public key", ErrNilParam)
	}

	// X || Y, each zero-padded to 32 bytes.
	var point [64]byte
	pub.X.FillBytes(point[:32])
	pub.Y.FillBytes(point[32:])

	hash := Keccak256(point[:])
	copy(a[:], hash[12:])
	return a, nil
}

// FromPrivateKey derives the account address of priv.
func FromPrivateKey(priv *ec.PrivateKey) (Address, error) {
	if priv == nil {
		return Zero, fmt.Errorf("%w: private key", ErrNilParam)
	}
	return FromPublicKey(priv.PubKey())
}

// SignDigest signs a 32-byte digest and returns the DER-encoded signature.
func SignDigest(priv *ec.PrivateKey, digest []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: private key", ErrNilParam)
	}
	if len(digest) != 32 {
		return nil, fmt.Errorf("%w: digest must be 32 bytes, got %d", ErrInvalidSignature, len(digest))
	}
	sig, err := priv.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("account: sign digest: %w", err)
	}
	return sig.Serialize(), nil
}

// VerifyDigest checks a DER signature over digest against a compressed or
// uncompressed public key and returns the signer's address.
func VerifyDigest(pubKey, digest, sig []byte) (Address, error) {
	pub, err := ec.PublicKeyFromBytes(pubKey)
	if err != nil {
		return Zero, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	parsed, err := ec.ParseDERSignature(sig)
	if err != nil {
		return Zero, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if !parsed.Verify(digest, pub) {
		return Zero, fmt.Errorf("%w: verification failed", ErrInvalidSignature)
	}
	return FromPublicKey(pub)
}
