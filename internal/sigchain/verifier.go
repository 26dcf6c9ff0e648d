package sigchain

import (
	"fmt"

	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/signature/eddsa"
)

// Verifier is the in-circuit side of Chain. Build one per Define call.
type Verifier struct {
	api    frontend.API
	curve  twistededwards.Curve
	oracle eddsa.PublicKey
}

func NewVerifier(api frontend.API, oracle OracleKey) (*Verifier, error) {
	if oracle.IsZero() {
		return nil, ErrNoOracle
	}
	curve, err := twistededwards.NewEdCurve(api, tedwards.BN254)
	if err != nil {
		return nil, fmt.Errorf("edwards curve: %w", err)
	}
	return &Verifier{api: api, curve: curve, oracle: oracle.constant()}, nil
}

// Digest is the in-circuit attribute.Digest.
func (v *Verifier) Digest(fields ...frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(v.api)
	if err != nil {
		return nil, err
	}
	h.Write(fields...)
	return h.Sum(), nil
}

// VerifyOracle checks sig against the compiled-in oracle key.
func (v *Verifier) VerifyOracle(digest frontend.Variable, sig eddsa.Signature) error {
	return v.verify(digest, sig, v.oracle)
}

// VerifyHolder checks sig against a key supplied in the witness.
func (v *Verifier) VerifyHolder(digest frontend.Variable, sig eddsa.Signature, pub eddsa.PublicKey) error {
	v.curve.AssertIsOnCurve(pub.A)
	return v.verify(digest, sig, pub)
}

func (v *Verifier) verify(digest frontend.Variable, sig eddsa.Signature, pub eddsa.PublicKey) error {
	// eddsa.Verify does not reset the hasher, so each call gets its own
	h, err := mimc.NewMiMC(v.api)
	if err != nil {
		return err
	}
	return eddsa.Verify(v.curve, sig, digest, pub, &h)
}
