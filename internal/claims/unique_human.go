package claims

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/signature/eddsa"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
)

// UniqueHumanCircuit outputs MiMC(pno ‖ secret). The oracle-issued secret keeps
// the identifier stable per person yet not recomputable from public identity data.
type UniqueHumanCircuit struct {
	Oracle sigchain.OracleKey `gnark:"-"`

	Output PublicOutput `gnark:",public"`

	PersonalData    PersonalDataWitness
	OracleSignature eddsa.Signature
	Secret          PersonalSecretWitness
	SecretSignature eddsa.Signature
	Binding         Binding
}

func (c *UniqueHumanCircuit) Define(api frontend.API) error {
	v, err := sigchain.NewVerifier(api, c.Oracle)
	if err != nil {
		return err
	}

	digest, err := v.Digest(c.PersonalData.Fields()...)
	if err != nil {
		return err
	}
	if err := v.VerifyOracle(digest, c.OracleSignature); err != nil {
		return err
	}

	secretDigest, err := v.Digest(c.Secret.Fields()...)
	if err != nil {
		return err
	}
	if err := v.VerifyOracle(secretDigest, c.SecretSignature); err != nil {
		return err
	}

	if err := c.Binding.Verify(api, v, digest, &c.Output); err != nil {
		return err
	}

	hash, err := v.Digest(append(c.PersonalData.PNO[:], c.Secret.Fields()...)...)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c.Output.Result, hash)
	c.Output.assertCommon(api, c.PersonalData.CurrentDate, c.PersonalData.IsMockData)
	return nil
}

// UniqueHumanHash is the off-circuit identifier.
func UniqueHumanHash(pno attribute.CircuitString, secret attribute.PersonalSecret) fr.Element {
	return attribute.Digest(append(pno.Fields(), secret.Fields()...))
}

type UniqueHumanRequest struct {
	PersonalData attribute.SignedPayload[attribute.PersonalData]
	Secret       attribute.SignedPayload[attribute.PersonalSecret]
	Holder       attribute.CreatorAccount
	PassKeys     attribute.PassKeys
}

func (r UniqueHumanRequest) CircuitID() CircuitID { return ProofOfUniqueHuman }

func (r UniqueHumanRequest) Validate(oracle sigchain.OracleKey) error {
	c := chain(oracle, r.PersonalData.Data.Fields(), r.Holder, r.PassKeys,
		sigchain.OracleLink("personal data", r.PersonalData),
		sigchain.OracleLink("personal secret", r.Secret),
	)
	if err := c.Verify(); err != nil {
		return err
	}
	if r.Secret.Data.Secret.Len() == 0 {
		return reasoncodes.Newf(reasoncodes.ErrMalformedInput, "empty personal secret")
	}
	if _, err := r.PassKeys.IDField(); err != nil {
		return reasoncodes.New(reasoncodes.ErrMalformedInput, err)
	}
	return nil
}

func (r UniqueHumanRequest) Output() (Output, error) {
	pd := r.PersonalData.Data
	hash := UniqueHumanHash(pd.PNO, r.Secret.Data)
	return newOutput(hash.BigInt(new(big.Int)), pd.CurrentDate, pd.IsMockData, r.Holder, r.PassKeys)
}

func (r UniqueHumanRequest) Assignment() (frontend.Circuit, error) {
	out, err := r.Output()
	if err != nil {
		return nil, fmt.Errorf("unique human output: %w", err)
	}
	return &UniqueHumanCircuit{
		Output:          out.Assignment(),
		PersonalData:    AssignPersonalData(r.PersonalData.Data),
		OracleSignature: assignSignature(r.PersonalData.Signature),
		Secret:          AssignPersonalSecret(r.Secret.Data),
		SecretSignature: assignSignature(r.Secret.Signature),
		Binding:         AssignBinding(r.Holder, r.PassKeys),
	}, nil
}
