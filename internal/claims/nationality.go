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

// NationalityCircuit discloses the two-letter country code as c0·100 + c1.
type NationalityCircuit struct {
	Oracle sigchain.OracleKey `gnark:"-"`

	Output PublicOutput `gnark:",public"`

	PersonalData    PersonalDataWitness
	OracleSignature eddsa.Signature
	Binding         Binding
}

func (c *NationalityCircuit) Define(api frontend.API) error {
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

	country := c.PersonalData.Country
	for _, ch := range country[:2] {
		api.AssertIsLessOrEqual(api.Sub(ch, int('A')), int('Z'-'A'))
	}
	api.AssertIsEqual(country[2], 0)

	api.AssertIsEqual(c.Output.Result, api.Add(api.Mul(country[0], 100), country[1]))
	c.Output.assertCommon(api, c.PersonalData.CurrentDate, c.PersonalData.IsMockData)
	return nil
}

// NationalityCode packs a two-letter upper-case country code, "EE" -> 6969.
func NationalityCode(country string) (uint64, error) {
	cs, err := attribute.NewCircuitString(country)
	if err != nil {
		return 0, reasoncodes.New(reasoncodes.ErrMalformedInput, err)
	}
	return nationalityCode(cs)
}

// nationalityCode checks the same slots the circuit constrains.
func nationalityCode(country attribute.CircuitString) (uint64, error) {
	if country.Len() != 2 {
		return 0, reasoncodes.Newf(reasoncodes.ErrMalformedInput, "country %q is not a two-letter code", country.String())
	}
	for _, c := range country[:2] {
		if c < 'A' || c > 'Z' {
			return 0, reasoncodes.Newf(reasoncodes.ErrMalformedInput, "country %q is not upper-case A-Z", country.String())
		}
	}
	return uint64(country[0])*100 + uint64(country[1]), nil
}

type NationalityRequest struct {
	PersonalData attribute.SignedPayload[attribute.PersonalData]
	Holder       attribute.CreatorAccount
	PassKeys     attribute.PassKeys
}

func (r NationalityRequest) CircuitID() CircuitID { return ProofOfNationality }

func (r NationalityRequest) Validate(oracle sigchain.OracleKey) error {
	c := chain(oracle, r.PersonalData.Data.Fields(), r.Holder, r.PassKeys, sigchain.OracleLink("personal data", r.PersonalData))
	if err := c.Verify(); err != nil {
		return err
	}
	if _, err := nationalityCode(r.PersonalData.Data.Country); err != nil {
		return err
	}
	if _, err := r.PassKeys.IDField(); err != nil {
		return reasoncodes.New(reasoncodes.ErrMalformedInput, err)
	}
	return nil
}

func (r NationalityRequest) Output() (Output, error) {
	pd := r.PersonalData.Data
	code, err := nationalityCode(pd.Country)
	if err != nil {
		return Output{}, err
	}
	return newOutput(new(big.Int).SetUint64(code), pd.CurrentDate, pd.IsMockData, r.Holder, r.PassKeys)
}

func (r NationalityRequest) Assignment() (frontend.Circuit, error) {
	out, err := r.Output()
	if err != nil {
		return nil, fmt.Errorf("nationality output: %w", err)
	}
	return &NationalityCircuit{
		Output:          out.Assignment(),
		PersonalData:    AssignPersonalData(r.PersonalData.Data),
		OracleSignature: assignSignature(r.PersonalData.Signature),
		Binding:         AssignBinding(r.Holder, r.PassKeys),
	}, nil
}
