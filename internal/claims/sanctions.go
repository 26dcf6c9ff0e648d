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

// SanctionsCircuit proves the oracle found no sanctions match.
// Output[0] is the screening score threshold, output[1] the screening day.
type SanctionsCircuit struct {
	Oracle sigchain.OracleKey `gnark:"-"`

	Output PublicOutput `gnark:",public"`

	SanctionsData   SanctionsDataWitness
	OracleSignature eddsa.Signature
	Binding         Binding
}

func (c *SanctionsCircuit) Define(api frontend.API) error {
	v, err := sigchain.NewVerifier(api, c.Oracle)
	if err != nil {
		return err
	}

	digest, err := v.Digest(c.SanctionsData.Fields()...)
	if err != nil {
		return err
	}
	if err := v.VerifyOracle(digest, c.OracleSignature); err != nil {
		return err
	}
	if err := c.Binding.Verify(api, v, digest, &c.Output); err != nil {
		return err
	}

	api.AssertIsBoolean(c.SanctionsData.IsMatched)
	api.AssertIsEqual(c.SanctionsData.IsMatched, 0)

	year, month, day := dateparse.DateFromString(api, c.SanctionsData.CurrentDate)
	currentDate := dateparse.ComposeDateGadget(api, year, month, day)

	api.AssertIsEqual(c.Output.Result, c.SanctionsData.MinScore)
	c.Output.assertCommon(api, currentDate, c.SanctionsData.IsMockData)
	return nil
}

type SanctionsRequest struct {
	SanctionsData attribute.SignedPayload[attribute.SanctionsData]
	Holder        attribute.CreatorAccount
	PassKeys      attribute.PassKeys
}

func (r SanctionsRequest) CircuitID() CircuitID { return ProofOfSanctions }

func (r SanctionsRequest) Validate(oracle sigchain.OracleKey) error {
	c := chain(oracle, r.SanctionsData.Data.Fields(), r.Holder, r.PassKeys, sigchain.OracleLink("sanctions data", r.SanctionsData))
	if err := c.Verify(); err != nil {
		return err
	}
	if r.SanctionsData.Data.IsMatched {
		return reasoncodes.Newf(reasoncodes.ErrSanctionsMatched, "holder matched a sanctions list")
	}
	if _, err := r.currentDate(); err != nil {
		return err
	}
	if _, err := r.PassKeys.IDField(); err != nil {
		return reasoncodes.New(reasoncodes.ErrMalformedInput, err)
	}
	return nil
}

func (r SanctionsRequest) currentDate() (uint64, error) {
	return dateparse.Date(r.SanctionsData.Data.CurrentDate)
}

func (r SanctionsRequest) Output() (Output, error) {
	date, err := r.currentDate()
	if err != nil {
		return Output{}, err
	}
	sd := r.SanctionsData.Data
	return newOutput(new(big.Int).SetUint64(sd.MinScore), date, sd.IsMockData, r.Holder, r.PassKeys)
}

func (r SanctionsRequest) Assignment() (frontend.Circuit, error) {
	out, err := r.Output()
	if err != nil {
		return nil, fmt.Errorf("sanctions output: %w", err)
	}
	return &SanctionsCircuit{
		Output:          out.Assignment(),
		SanctionsData:   AssignSanctionsData(r.SanctionsData.Data),
		OracleSignature: assignSignature(r.SanctionsData.Signature),
		Binding:         AssignBinding(r.Holder, r.PassKeys),
	}, nil
}
