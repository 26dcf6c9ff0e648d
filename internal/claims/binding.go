package claims

import (
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/signature/eddsa"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
)

// Binding ties a proof to the account holder and to their authenticator.
type Binding struct {
	HolderPublicKey eddsa.PublicKey
	HolderSignature eddsa.Signature
	Device          sigchain.DeviceWitness
}

// Verify checks the holder signature over digest and the device signature,
// and pins the holder and device keys into the public output.
func (b *Binding) Verify(api frontend.API, v *sigchain.Verifier, digest frontend.Variable, out *PublicOutput) error {
	if err := v.VerifyHolder(digest, b.HolderSignature, b.HolderPublicKey); err != nil {
		return err
	}
	api.AssertIsEqual(out.HolderKeyX, b.HolderPublicKey.A.X)
	api.AssertIsEqual(out.HolderKeyY, b.HolderPublicKey.A.Y)

	v.VerifyDevice(&b.Device)
	limbs, err := v.DeviceKeyLimbs(&b.Device.PublicKey)
	if err != nil {
		return err
	}
	for i := range limbs {
		api.AssertIsEqual(out.DeviceKey[i], limbs[i])
	}
	return nil
}

func assignSignature(sig []byte) eddsa.Signature {
	var s eddsa.Signature
	s.Assign(tedwards.BN254, sig)
	return s
}

func AssignBinding(holder attribute.CreatorAccount, pk attribute.PassKeys) Binding {
	var b Binding
	pub := holder.PublicKey
	b.HolderPublicKey.Assign(tedwards.BN254, pub.Bytes())
	b.HolderSignature = assignSignature(holder.Signature)
	b.Device = sigchain.AssignDevice(sigchain.DeviceLinkFrom(pk))
	return b
}

// chain is the off-circuit counterpart of the oracle links plus Binding.Verify.
func chain(oracle sigchain.OracleKey, holderPayload []fr.Element, holder attribute.CreatorAccount, pk attribute.PassKeys, oracleLinks ...sigchain.Link) sigchain.Chain {
	links := append(oracleLinks, sigchain.HolderLink("account holder", holderPayload, holder))
	return sigchain.Chain{
		Oracle: oracle,
		Links:  links,
		Device: sigchain.DeviceLinkFrom(pk),
	}
}
