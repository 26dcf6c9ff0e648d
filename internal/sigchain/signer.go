package sigchain

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/id-Mask/smart-contracts/internal/attribute"
)

// Signer signs field sequences the way issuers and account holders do:
// EdDSA over the MiMC digest.
type Signer struct {
	priv *eddsa.PrivateKey
}

func NewSigner(random io.Reader) (*Signer, error) {
	priv, err := eddsa.GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("generate eddsa key: %w", err)
	}
	return &Signer{priv: priv}, nil
}

// NewSignerFromSeed derives a reproducible key from a label. Test and mock use only.
func NewSignerFromSeed(label string) *Signer {
	seed := sha256.Sum256([]byte(label))
	signer, err := NewSigner(bytes.NewReader(seed[:]))
	if err != nil {
		panic(err)
	}
	return signer
}

func (s *Signer) PublicKey() eddsa.PublicKey {
	return s.priv.PublicKey
}

func (s *Signer) OracleKey() OracleKey {
	return OracleKeyFromPublicKey(s.priv.PublicKey)
}

func (s *Signer) Sign(fields []fr.Element) ([]byte, error) {
	sig, err := s.priv.Sign(attribute.DigestBytes(fields), mimc.NewMiMC())
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	return sig, nil
}

// SignPayload signs p and packages the result.
func SignPayload[T attribute.Payload](s *Signer, p T) (attribute.SignedPayload[T], error) {
	sig, err := s.Sign(p.Fields())
	if err != nil {
		return attribute.SignedPayload[T]{}, err
	}
	return attribute.SignedPayload[T]{Data: p, Signature: sig, PublicKey: s.PublicKey()}, nil
}
