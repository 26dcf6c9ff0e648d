// Package mock builds signed claim inputs from a deterministic mock oracle.
// It backs tests and the interact command, never production proofs.
package mock

import (
	"encoding/json"
	"fmt"

	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
)

const (
	OracleSeed = "idmask-mock-oracle"
	HolderSeed = "idmask-mock-holder"

	DefaultAge    = 18
	DefaultSecret = "123abc"

	PasskeyID        = "qaJp7BwUkIObDyRE5o_xNg"
	PasskeyPublicHex = "0x04f233d2c2db88ea7c936939cea21f22f1d308d3f527969f5e73ef49b47245d80c8abc0824030a31ee43dfba8419e5044f1f9e82d4e72d73b847b8ffd5f606d0a8"
	PasskeyPayload   = "0xecaa80f4b8f73bec3100e49e601a9ffbf194d4d6b1610701aafdcc390a4ca953"
	PasskeySignature = "0x708330e4d634d1446cd955272c514c9a2a963e5cb1bffc5185fd404f7a6ad794274c91e52ebfa9331ce79a558ec7477a38bf43c19463fc034a022311234fa840"
)

var personalData = attribute.PersonalDataJson{
	Name:        "Hilary",
	Surname:     "Ouse",
	Country:     "EE",
	PNO:         "PNOLT-41111117143",
	CurrentDate: 20231024,
	IsMockData:  true,
}

// Fixture holds the mock oracle and account holder keys.
type Fixture struct {
	Oracle *sigchain.Signer
	Holder *sigchain.Signer
}

func NewFixture() *Fixture {
	return &Fixture{
		Oracle: sigchain.NewSignerFromSeed(OracleSeed),
		Holder: sigchain.NewSignerFromSeed(HolderSeed),
	}
}

func (f *Fixture) OracleKey() sigchain.OracleKey {
	return f.Oracle.OracleKey()
}

// OracleResponse is the personal data response as the oracle would serve it.
func (f *Fixture) OracleResponse() ([]byte, error) {
	return f.PersonalDataResponse(personalData)
}

func (f *Fixture) PersonalDataResponse(data attribute.PersonalDataJson) ([]byte, error) {
	pd, err := data.ToDomain()
	if err != nil {
		return nil, err
	}
	sig, err := f.Oracle.Sign(pd.Fields())
	if err != nil {
		return nil, err
	}
	return json.Marshal(attribute.OracleResponseJson[attribute.PersonalDataJson]{
		Data:      data,
		Signature: attribute.SignatureJson{Raw: sig},
		PublicKey: f.OracleKey().String(),
	})
}

func (f *Fixture) SanctionsResponse(isMatched bool) ([]byte, error) {
	data := attribute.SanctionsDataJson{
		IsMatched:   isMatched,
		MinScore:    95,
		CurrentDate: "2023-11-16",
		IsMockData:  true,
	}
	sd, err := data.ToDomain()
	if err != nil {
		return nil, err
	}
	sig, err := f.Oracle.Sign(sd.Fields())
	if err != nil {
		return nil, err
	}
	return json.Marshal(attribute.OracleResponseJson[attribute.SanctionsDataJson]{
		Data:      data,
		Signature: attribute.SignatureJson{Raw: sig},
		PublicKey: f.OracleKey().String(),
	})
}

func (f *Fixture) SecretResponse(secret string) ([]byte, error) {
	cs, err := attribute.NewCircuitString(secret)
	if err != nil {
		return nil, err
	}
	sig, err := f.Oracle.Sign(attribute.PersonalSecret{Secret: cs}.Fields())
	if err != nil {
		return nil, err
	}
	return json.Marshal(attribute.SecretResponseJson{
		Secret:    secret,
		Signature: attribute.SignatureJson{Raw: sig},
		PublicKey: f.OracleKey().String(),
	})
}

func (f *Fixture) PersonalData() (attribute.SignedPayload[attribute.PersonalData], error) {
	raw, err := f.OracleResponse()
	if err != nil {
		return attribute.SignedPayload[attribute.PersonalData]{}, err
	}
	return attribute.ParseOracleResponse(raw)
}

// Account signs payload with the holder key.
func (f *Fixture) Account(payload attribute.Payload) (attribute.CreatorAccount, error) {
	sig, err := f.Holder.Sign(payload.Fields())
	if err != nil {
		return attribute.CreatorAccount{}, fmt.Errorf("holder signature: %w", err)
	}
	return attribute.CreatorAccount{PublicKey: f.Holder.PublicKey(), Signature: sig}, nil
}

// PassKeys is a real WebAuthn assertion captured from a platform authenticator.
func PassKeys() (attribute.PassKeys, error) {
	pub, err := attribute.ParseDeviceKeyHex(PasskeyPublicHex)
	if err != nil {
		return attribute.PassKeys{}, err
	}
	payload, err := attribute.ParseChallengeHex(PasskeyPayload)
	if err != nil {
		return attribute.PassKeys{}, err
	}
	r, s, err := attribute.ParseDeviceSignatureHex(PasskeySignature)
	if err != nil {
		return attribute.PassKeys{}, err
	}
	return attribute.PassKeys{ID: PasskeyID, PublicKey: pub, Payload: payload, R: r, S: s}, nil
}

func (f *Fixture) personalBinding() (attribute.SignedPayload[attribute.PersonalData], attribute.CreatorAccount, attribute.PassKeys, error) {
	pd, err := f.PersonalData()
	if err != nil {
		return pd, attribute.CreatorAccount{}, attribute.PassKeys{}, err
	}
	account, err := f.Account(pd.Data)
	if err != nil {
		return pd, account, attribute.PassKeys{}, err
	}
	pk, err := PassKeys()
	return pd, account, pk, err
}

func (f *Fixture) AgeRequest(age uint64) (claims.AgeRequest, error) {
	pd, account, pk, err := f.personalBinding()
	if err != nil {
		return claims.AgeRequest{}, err
	}
	return claims.AgeRequest{AgeToProveInYears: age, PersonalData: pd, Holder: account, PassKeys: pk}, nil
}

func (f *Fixture) NationalityRequest() (claims.NationalityRequest, error) {
	pd, account, pk, err := f.personalBinding()
	if err != nil {
		return claims.NationalityRequest{}, err
	}
	return claims.NationalityRequest{PersonalData: pd, Holder: account, PassKeys: pk}, nil
}

func (f *Fixture) IdentityRequest() (claims.IdentityRequest, error) {
	pd, account, pk, err := f.personalBinding()
	if err != nil {
		return claims.IdentityRequest{}, err
	}
	return claims.IdentityRequest{PersonalData: pd, Holder: account, PassKeys: pk}, nil
}

func (f *Fixture) UniqueHumanRequest(secret string) (claims.UniqueHumanRequest, error) {
	pd, account, pk, err := f.personalBinding()
	if err != nil {
		return claims.UniqueHumanRequest{}, err
	}
	raw, err := f.SecretResponse(secret)
	if err != nil {
		return claims.UniqueHumanRequest{}, err
	}
	sp, err := attribute.ParseSecretResponse(raw)
	if err != nil {
		return claims.UniqueHumanRequest{}, err
	}
	return claims.UniqueHumanRequest{PersonalData: pd, Secret: sp, Holder: account, PassKeys: pk}, nil
}

func (f *Fixture) SanctionsRequest(isMatched bool) (claims.SanctionsRequest, error) {
	raw, err := f.SanctionsResponse(isMatched)
	if err != nil {
		return claims.SanctionsRequest{}, err
	}
	sd, err := attribute.ParseSanctionsResponse(raw)
	if err != nil {
		return claims.SanctionsRequest{}, err
	}
	account, err := f.Account(sd.Data)
	if err != nil {
		return claims.SanctionsRequest{}, err
	}
	pk, err := PassKeys()
	if err != nil {
		return claims.SanctionsRequest{}, err
	}
	return claims.SanctionsRequest{SanctionsData: sd, Holder: account, PassKeys: pk}, nil
}

// Request builds the default passing claim for id.
func (f *Fixture) Request(id claims.CircuitID) (claims.Request, error) {
	switch id {
	case claims.ProofOfAge:
		return f.AgeRequest(DefaultAge)
	case claims.ProofOfNationality:
		return f.NationalityRequest()
	case claims.ProofOfSanctions:
		return f.SanctionsRequest(false)
	case claims.ProofOfUniqueHuman:
		return f.UniqueHumanRequest(DefaultSecret)
	case claims.ProofOfIdentity:
		return f.IdentityRequest()
	default:
		_, err := claims.Lookup(id)
		return nil, err
	}
}
