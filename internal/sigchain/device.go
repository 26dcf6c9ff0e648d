package sigchain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_emulated"
	"github.com/consensys/gnark/std/math/emulated"
	gnarkecdsa "github.com/consensys/gnark/std/signature/ecdsa"
)

const (
	// DeviceLimbBits is the width of each public device key limb.
	DeviceLimbBits = 88
	// DeviceLimbCount is three limbs per coordinate, x then y.
	DeviceLimbCount = 6

	coordLimbs = DeviceLimbCount / 2
)

type (
	DevicePublicKey = gnarkecdsa.PublicKey[emulated.P256Fp, emulated.P256Fr]
	DeviceSignature = gnarkecdsa.Signature[emulated.P256Fr]
	DeviceChallenge = emulated.Element[emulated.P256Fr]
)

// DeviceWitness is the authenticator binding as circuit inputs.
type DeviceWitness struct {
	PublicKey DevicePublicKey
	Signature DeviceSignature
	Challenge DeviceChallenge
}

// AssignDevice fills the witness from an off-circuit DeviceLink.
func AssignDevice(d *DeviceLink) DeviceWitness {
	n := d.PublicKey.Curve.Params().N
	challenge := new(big.Int).SetBytes(d.Challenge[:])
	challenge.Mod(challenge, n)

	return DeviceWitness{
		PublicKey: DevicePublicKey{
			X: emulated.ValueOf[emulated.P256Fp](d.PublicKey.X),
			Y: emulated.ValueOf[emulated.P256Fp](d.PublicKey.Y),
		},
		Signature: DeviceSignature{
			R: emulated.ValueOf[emulated.P256Fr](d.R),
			S: emulated.ValueOf[emulated.P256Fr](d.S),
		},
		Challenge: emulated.ValueOf[emulated.P256Fr](challenge),
	}
}

// VerifyDevice asserts the P-256 signature over the challenge.
func (v *Verifier) VerifyDevice(d *DeviceWitness) {
	d.PublicKey.Verify(v.api, sw_emulated.GetCurveParams[emulated.P256Fp](), &d.Challenge, &d.Signature)
}

// DeviceKeyLimbs re-packs the canonical device key coordinates into
// 88-bit limbs, little-endian: x0, x1, x2, y0, y1, y2.
func (v *Verifier) DeviceKeyLimbs(pub *DevicePublicKey) ([DeviceLimbCount]frontend.Variable, error) {
	var out [DeviceLimbCount]frontend.Variable

	fp, err := emulated.NewField[emulated.P256Fp](v.api)
	if err != nil {
		return out, fmt.Errorf("p256 base field: %w", err)
	}

	var fpParams emulated.P256Fp
	limbBits := int(fpParams.BitsPerLimb())

	for c, coord := range []*emulated.Element[emulated.P256Fp]{&pub.X, &pub.Y} {
		reduced := fp.ReduceStrict(coord)

		bits := make([]frontend.Variable, 0, len(reduced.Limbs)*limbBits)
		for _, limb := range reduced.Limbs {
			bits = append(bits, v.api.ToBinary(limb, limbBits)...)
		}

		for i := 0; i < coordLimbs; i++ {
			lo := i * DeviceLimbBits
			hi := min(lo+DeviceLimbBits, len(bits))
			out[c*coordLimbs+i] = v.api.FromBinary(bits[lo:hi]...)
		}
	}
	return out, nil
}

// DeviceKeyLimbValues is the off-circuit DeviceKeyLimbs.
func DeviceKeyLimbValues(pub *ecdsa.PublicKey) [DeviceLimbCount]*big.Int {
	var out [DeviceLimbCount]*big.Int
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), DeviceLimbBits), big.NewInt(1))

	for c, coord := range []*big.Int{pub.X, pub.Y} {
		for i := 0; i < coordLimbs; i++ {
			limb := new(big.Int).Rsh(coord, uint(i*DeviceLimbBits))
			out[c*coordLimbs+i] = limb.And(limb, mask)
		}
	}
	return out
}

// DeviceKeyFromLimbs rebuilds the coordinates from public output limbs.
func DeviceKeyFromLimbs(limbs [DeviceLimbCount]*big.Int) (x, y *big.Int) {
	join := func(parts []*big.Int) *big.Int {
		out := new(big.Int)
		for i := len(parts) - 1; i >= 0; i-- {
			out.Lsh(out, DeviceLimbBits)
			out.Or(out, parts[i])
		}
		return out
	}
	return join(limbs[:coordLimbs]), join(limbs[coordLimbs:])
}
