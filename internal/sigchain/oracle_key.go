package sigchain

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	gnarkeddsa "github.com/consensys/gnark/std/signature/eddsa"
	"github.com/id-Mask/smart-contracts/internal/attribute"
)

// DefaultOracleKeyBase58 is the production attester key, X‖Y big-endian.
const DefaultOracleKeyBase58 = "P6Kxh6yTeSdTWKJBr29cAT9Dpsd8P8B65whUsmUrrDfmDVJduAAXrEtaWg7SfsBpWmRHd7VQtGz2r6UZmbrLa8N"

// OracleKey is the single attester every circuit trusts. It is compiled into
// the constraint system as constants and never appears in a witness.
type OracleKey struct {
	X, Y *big.Int
}

func DefaultOracleKey() OracleKey {
	key, err := ParseOracleKey(DefaultOracleKeyBase58)
	if err != nil {
		panic(fmt.Sprintf("default oracle key: %v", err))
	}
	return key
}

func ParseOracleKey(s string) (OracleKey, error) {
	pub, err := attribute.DecodePublicKey(s)
	if err != nil {
		return OracleKey{}, fmt.Errorf("oracle key: %w", err)
	}
	return OracleKeyFromPublicKey(pub), nil
}

func OracleKeyFromPublicKey(pub eddsa.PublicKey) OracleKey {
	return OracleKey{
		X: pub.A.X.BigInt(new(big.Int)),
		Y: pub.A.Y.BigInt(new(big.Int)),
	}
}

func (k OracleKey) IsZero() bool {
	return k.X == nil || k.Y == nil
}

func (k OracleKey) PublicKey() eddsa.PublicKey {
	var pub eddsa.PublicKey
	pub.A.X.SetBigInt(k.X)
	pub.A.Y.SetBigInt(k.Y)
	return pub
}

func (k OracleKey) String() string {
	if k.IsZero() {
		return ""
	}
	return attribute.EncodePublicKey(k.PublicKey())
}

func (k OracleKey) Equal(other OracleKey) bool {
	if k.IsZero() || other.IsZero() {
		return k.IsZero() == other.IsZero()
	}
	return k.X.Cmp(other.X) == 0 && k.Y.Cmp(other.Y) == 0
}

// constant is the key as circuit constants.
func (k OracleKey) constant() gnarkeddsa.PublicKey {
	return gnarkeddsa.PublicKey{A: twistededwards.Point{X: k.X, Y: k.Y}}
}
