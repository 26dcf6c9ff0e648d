package attribute

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/mr-tron/base58"
)

const (
	// PublicKeySize is the X‖Y encoding of an EdDSA key, 32 bytes each.
	PublicKeySize = 2 * fr.Bytes
	// SignatureSize is R (compressed) ‖ S.
	SignatureSize = 2 * fr.Bytes
)

var ErrInvalidPublicKey = errors.New("invalid public key")

// EncodePublicKey renders X‖Y big-endian as base58.
func EncodePublicKey(pub eddsa.PublicKey) string {
	x := pub.A.X.Bytes()
	y := pub.A.Y.Bytes()
	return base58.Encode(append(x[:], y[:]...))
}

// DecodePublicKey accepts the X‖Y form as well as the 32-byte compressed form.
// The point must lie on the curve.
func DecodePublicKey(s string) (eddsa.PublicKey, error) {
	var pub eddsa.PublicKey

	raw, err := base58.Decode(s)
	if err != nil {
		return pub, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	switch len(raw) {
	case PublicKeySize:
		if err := pub.A.X.SetBytesCanonical(raw[:fr.Bytes]); err != nil {
			return pub, fmt.Errorf("%w: x: %v", ErrInvalidPublicKey, err)
		}
		if err := pub.A.Y.SetBytesCanonical(raw[fr.Bytes:]); err != nil {
			return pub, fmt.Errorf("%w: y: %v", ErrInvalidPublicKey, err)
		}
	case fr.Bytes:
		if _, err := pub.SetBytes(raw); err != nil {
			return pub, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
	default:
		return pub, fmt.Errorf("%w: unexpected length %d", ErrInvalidPublicKey, len(raw))
	}

	if !pub.A.IsOnCurve() {
		return pub, fmt.Errorf("%w: point not on curve", ErrInvalidPublicKey)
	}
	return pub, nil
}

// KeyValues is the witness form of a public key, (X, Y).
func KeyValues(pub eddsa.PublicKey) (x, y fr.Element) {
	return pub.A.X, pub.A.Y
}
