package account

import "errors"

var (
	// ErrInvalidAddress indicates the address is not 20 bytes of hex.
	ErrInvalidAddress = errors.New("account: invalid address")

	// ErrInvalidPublicKey indicates the public key is not a valid secp256k1 point.
	ErrInvalidPublicKey = errors.New("account: invalid public key")

	// ErrInvalidSignature indicates the signature is malformed or does not verify.
	ErrInvalidSignature = errors.New("account: invalid signature")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("account: required parameter is nil")
)
