package attribute

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
)

// Payload is anything with a canonical field serialization.
type Payload interface {
	Fields() []fr.Element
}

// SignedPayload is a payload with the issuer signature over Digest(payload.Fields()).
type SignedPayload[T Payload] struct {
	Data      T
	Signature []byte
	PublicKey eddsa.PublicKey
}

// CreatorAccount binds a proof to the account holder: their key and their
// signature over the personal data digest.
type CreatorAccount struct {
	PublicKey eddsa.PublicKey
	Signature []byte
}
