package attribute

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	// ChallengeSize is the digest length the authenticator signs.
	ChallengeSize = 32
	p256CoordSize = 32
)

var (
	ErrInvalidDeviceKey = errors.New("invalid device public key")
	ErrDeviceIDTooLarge = errors.New("device id does not fit a field element")
)

// PassKeys is the authenticator credential binding a proof to a device.
type PassKeys struct {
	ID        string
	PublicKey *ecdsa.PublicKey
	Payload   [ChallengeSize]byte
	R, S      *big.Int
}

// IDField concatenates the decimal character codes of the credential id,
// "ab" -> 9798.
func (pk PassKeys) IDField() (*big.Int, error) {
	return ASCIIDecimal(pk.ID)
}

func ASCIIDecimal(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}

	var b strings.Builder
	for _, r := range s {
		fmt.Fprintf(&b, "%d", r)
	}
	n, _ := new(big.Int).SetString(b.String(), 10)
	if n.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDeviceIDTooLarge, s)
	}
	return n, nil
}

// Challenge is the signed payload read as a big-endian integer.
func (pk PassKeys) Challenge() *big.Int {
	return new(big.Int).SetBytes(pk.Payload[:])
}

// ParseDeviceKeyHex reads an uncompressed SEC1 point, with or without "0x".
func ParseDeviceKeyHex(s string) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeviceKey, err)
	}
	// ecdh validates the encoding and that the point is on the curve
	if _, err := ecdh.P256().NewPublicKey(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeviceKey, err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[1 : 1+p256CoordSize]),
		Y:     new(big.Int).SetBytes(raw[1+p256CoordSize:]),
	}, nil
}

// ParseDeviceSignatureHex reads a raw r‖s signature, with or without "0x".
func ParseDeviceSignatureHex(s string) (r, sv *big.Int, err error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, nil, fmt.Errorf("decode device signature: %w", err)
	}
	if len(raw) != 2*p256CoordSize {
		return nil, nil, fmt.Errorf("device signature must be %d bytes, got %d", 2*p256CoordSize, len(raw))
	}
	return new(big.Int).SetBytes(raw[:p256CoordSize]), new(big.Int).SetBytes(raw[p256CoordSize:]), nil
}

// ParseChallengeHex reads the 32-byte challenge digest.
func ParseChallengeHex(s string) ([ChallengeSize]byte, error) {
	var out [ChallengeSize]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, fmt.Errorf("decode challenge: %w", err)
	}
	if len(raw) != ChallengeSize {
		return out, fmt.Errorf("challenge must be %d bytes, got %d", ChallengeSize, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
