package claims

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/signature/eddsa"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
)

// IdentityCircuit only proves possession of oracle-attested data bound to the
// holder and device. Its result is always 1.
type IdentityCircuit struct {
	Oracle sigchain.OracleKey `gnark:"-"`

	Output PublicOutput `gnark:",public"`

	PersonalData    PersonalDataWitness
	OracleSignature eddsa.Signature
	Binding         Binding
}

func (c *IdentityCircuit) Define(api frontend.API) error {
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
	if err := c.Binding.Verify(api, v, digest, &c.Output); err != nil {
		return err
	}

	api.AssertIsEqual(c.Output.Result, 1)
	c.Output.assertCommon(api, c.PersonalData.CurrentDate, c.PersonalData.IsMockData)
	return nil
}

type IdentityRequest struct {
	PersonalData attribute.SignedPayload[attribute.PersonalData]
	Holder       attribute.CreatorAccount
	PassKeys     attribute.PassKeys
}

func (r IdentityRequest) CircuitID() CircuitID { return ProofOfIdentity }

func (r IdentityRequest) Validate(oracle sigchain.OracleKey) error {
	c := chain(oracle, r.PersonalData.Data.Fields(), r.Holder, r.PassKeys, sigchain.OracleLink("personal data", r.PersonalData))
	if err := c.Verify(); err != nil {
		return err
	}
	if _, err := r.PassKeys.IDField(); err != nil {
		return reasoncodes.New(reasoncodes.ErrMalformedInput, err)
	}
	return nil
}

func (r IdentityRequest) Output() (Output, error) {
	pd := r.PersonalData.Data
	return newOutput(big.NewInt(1), pd.CurrentDate, pd.IsMockData, r.Holder, r.PassKeys)
}

func (r IdentityRequest) Assignment() (frontend.Circuit, error) {
	out, err := r.Output()
	if err != nil {
		return nil, fmt.Errorf("identity output: %w", err)
	}
	return &IdentityCircuit{
		Output:          out.Assignment(),
		PersonalData:    AssignPersonalData(r.PersonalData.Data),
		OracleSignature: assignSignature(r.PersonalData.Signature),
		Binding:         AssignBinding(r.Holder, r.PassKeys),
	}, nil
}
