package attribute

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
)

// SignatureJson accepts either a base64 string of R‖S or {r, s} decimal halves.
type SignatureJson struct {
	Raw []byte
}

type signatureHalvesJson struct {
	R string `json:"r"`
	S string `json:"s"`
}

func (s *SignatureJson) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("signature: %w", err)
		}
		s.Raw = raw
		return s.checkSize()
	}

	var halves signatureHalvesJson
	if err := json.Unmarshal(data, &halves); err != nil {
		return err
	}
	raw := make([]byte, SignatureSize)
	for i, half := range []string{halves.R, halves.S} {
		n, ok := new(big.Int).SetString(half, 10)
		if !ok || n.Sign() < 0 || n.BitLen() > 8*fr.Bytes {
			return fmt.Errorf("signature: invalid half %q", half)
		}
		n.FillBytes(raw[i*fr.Bytes : (i+1)*fr.Bytes])
	}
	s.Raw = raw
	return nil
}

func (s SignatureJson) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(s.Raw))
}

func (s SignatureJson) checkSize() error {
	if len(s.Raw) != SignatureSize {
		return fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(s.Raw))
	}
	return nil
}

// FlagJson is a 0/1 flag the oracle may send as a bool, a number or a string.
type FlagJson bool

func (f *FlagJson) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = FlagJson(t)
	case float64:
		if t != 0 && t != 1 {
			return fmt.Errorf("flag must be 0 or 1, got %v", t)
		}
		*f = t == 1
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return fmt.Errorf("flag: %w", err)
		}
		*f = FlagJson(b)
	default:
		return fmt.Errorf("flag: unexpected %T", v)
	}
	return nil
}

type PersonalDataJson struct {
	Name        string   `json:"name"`
	Surname     string   `json:"surname"`
	Country     string   `json:"country"`
	PNO         string   `json:"pno"`
	CurrentDate uint64   `json:"currentDate"`
	IsMockData  FlagJson `json:"isMockData,omitempty"`
}

func (j PersonalDataJson) ToDomain() (PersonalData, error) {
	var pd PersonalData
	var err error

	for _, f := range []struct {
		name string
		src  string
		dst  *CircuitString
	}{
		{"name", j.Name, &pd.Name},
		{"surname", j.Surname, &pd.Surname},
		{"country", j.Country, &pd.Country},
		{"pno", j.PNO, &pd.PNO},
	} {
		if *f.dst, err = NewCircuitString(f.src); err != nil {
			return pd, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	pd.CurrentDate = j.CurrentDate
	pd.IsMockData = bool(j.IsMockData)
	return pd, nil
}

func PersonalDataToJson(pd PersonalData) PersonalDataJson {
	return PersonalDataJson{
		Name:        pd.Name.String(),
		Surname:     pd.Surname.String(),
		Country:     pd.Country.String(),
		PNO:         pd.PNO.String(),
		CurrentDate: pd.CurrentDate,
		IsMockData:  FlagJson(pd.IsMockData),
	}
}

type SanctionsDataJson struct {
	IsMatched   bool     `json:"isMatched"`
	MinScore    uint64   `json:"minScore"`
	CurrentDate string   `json:"currentDate"`
	IsMockData  FlagJson `json:"isMockData,omitempty"`
}

func (j SanctionsDataJson) ToDomain() (SanctionsData, error) {
	date, err := NewCircuitString(j.CurrentDate)
	if err != nil {
		return SanctionsData{}, fmt.Errorf("currentDate: %w", err)
	}
	return SanctionsData{
		IsMatched:   j.IsMatched,
		MinScore:    j.MinScore,
		CurrentDate: date,
		IsMockData:  bool(j.IsMockData),
	}, nil
}

type OracleResponseJson[T any] struct {
	Data      T             `json:"data"`
	Signature SignatureJson `json:"signature"`
	PublicKey string        `json:"publicKey"`
}

// SecretResponseJson is flat: the secret sits beside its signature.
type SecretResponseJson struct {
	Secret    string        `json:"secret"`
	Signature SignatureJson `json:"signature"`
	PublicKey string        `json:"publicKey"`
}

func ParseOracleResponse(raw []byte) (SignedPayload[PersonalData], error) {
	var resp OracleResponseJson[PersonalDataJson]
	if err := json.Unmarshal(raw, &resp); err != nil {
		return SignedPayload[PersonalData]{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	data, err := resp.Data.ToDomain()
	if err != nil {
		return SignedPayload[PersonalData]{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	return signed(data, resp.Signature, resp.PublicKey)
}

func ParseSanctionsResponse(raw []byte) (SignedPayload[SanctionsData], error) {
	var resp OracleResponseJson[SanctionsDataJson]
	if err := json.Unmarshal(raw, &resp); err != nil {
		return SignedPayload[SanctionsData]{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	data, err := resp.Data.ToDomain()
	if err != nil {
		return SignedPayload[SanctionsData]{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	return signed(data, resp.Signature, resp.PublicKey)
}

func ParseSecretResponse(raw []byte) (SignedPayload[PersonalSecret], error) {
	var resp SecretResponseJson
	if err := json.Unmarshal(raw, &resp); err != nil {
		return SignedPayload[PersonalSecret]{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	secret, err := NewCircuitString(resp.Secret)
	if err != nil {
		return SignedPayload[PersonalSecret]{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	return signed(PersonalSecret{Secret: secret}, resp.Signature, resp.PublicKey)
}

func signed[T Payload](data T, sig SignatureJson, publicKey string) (SignedPayload[T], error) {
	if err := sig.checkSize(); err != nil {
		return SignedPayload[T]{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}

	var pub eddsa.PublicKey
	if publicKey != "" {
		var err error
		if pub, err = DecodePublicKey(publicKey); err != nil {
			return SignedPayload[T]{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
		}
	}

	return SignedPayload[T]{
		Data:      data,
		Signature: sig.Raw,
		PublicKey: pub,
	}, nil
}
