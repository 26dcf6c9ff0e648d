package claims

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/signature/eddsa"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/internal/dateparse"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
)

// MaxAge is the exclusive upper bound on the age threshold.
const MaxAge = 200

// AgeCircuit proves the holder is at least AgeToProveInYears old.
type AgeCircuit struct {
	Oracle sigchain.OracleKey `gnark:"-"`

	AgeToProveInYears frontend.Variable `gnark:",public"`
	Output            PublicOutput      `gnark:",public"`

	PersonalData    PersonalDataWitness
	OracleSignature eddsa.Signature
	Binding         Binding
}

func (c *AgeCircuit) Define(api frontend.API) error {
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

	birthDate := dateparse.PNOBirthDate(api, c.PersonalData.PNO)
	dateparse.AssertOlderThan(api, birthDate, c.PersonalData.CurrentDate, c.AgeToProveInYears)

	api.AssertIsEqual(c.Output.Result, c.AgeToProveInYears)
	c.Output.assertCommon(api, c.PersonalData.CurrentDate, c.PersonalData.IsMockData)
	return nil
}

type AgeRequest struct {
	AgeToProveInYears uint64
	PersonalData      attribute.SignedPayload[attribute.PersonalData]
	Holder            attribute.CreatorAccount
	PassKeys          attribute.PassKeys
}

func (r AgeRequest) CircuitID() CircuitID { return ProofOfAge }

func (r AgeRequest) Validate(oracle sigchain.OracleKey) error {
	pd := r.PersonalData.Data
	fields := pd.Fields()
	c := chain(oracle, fields, r.Holder, r.PassKeys, sigchain.OracleLink("personal data", r.PersonalData))
	if err := c.Verify(); err != nil {
		return err
	}

	if r.AgeToProveInYears == 0 || r.AgeToProveInYears >= MaxAge {
		return reasoncodes.Newf(reasoncodes.ErrClaimOutOfRange, "age %d outside (0, %d)", r.AgeToProveInYears, MaxAge)
	}
	if pd.CurrentDate > dateparse.MaxDate {
		return reasoncodes.Newf(reasoncodes.ErrClaimOutOfRange, "current date %d after %d", pd.CurrentDate, dateparse.MaxDate)
	}
	birthDate, err := dateparse.BirthDate(pd.PNO)
	if err != nil {
		return err
	}
	if pd.CurrentDate <= birthDate {
		return reasoncodes.Newf(reasoncodes.ErrDateOrder, "current date %d not after birth date %d", pd.CurrentDate, birthDate)
	}
	if !dateparse.OlderThan(birthDate, pd.CurrentDate, r.AgeToProveInYears) {
		return reasoncodes.Newf(reasoncodes.ErrPredicateNotMet, "holder is younger than %d", r.AgeToProveInYears)
	}
	if _, err := r.PassKeys.IDField(); err != nil {
		return reasoncodes.New(reasoncodes.ErrMalformedInput, err)
	}
	return nil
}

func (r AgeRequest) Output() (Output, error) {
	pd := r.PersonalData.Data
	return newOutput(new(big.Int).SetUint64(r.AgeToProveInYears), pd.CurrentDate, pd.IsMockData, r.Holder, r.PassKeys)
}

func (r AgeRequest) Assignment() (frontend.Circuit, error) {
	out, err := r.Output()
	if err != nil {
		return nil, fmt.Errorf("age output: %w", err)
	}
	return &AgeCircuit{
		AgeToProveInYears: r.AgeToProveInYears,
		Output:            out.Assignment(),
		PersonalData:      AssignPersonalData(r.PersonalData.Data),
		OracleSignature:   assignSignature(r.PersonalData.Signature),
		Binding:           AssignBinding(r.Holder, r.PassKeys),
	}, nil
}
