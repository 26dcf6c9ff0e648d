package attribute

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockPersonalData(t *testing.T) PersonalData {
	t.Helper()
	pd, err := PersonalDataJson{
		Name:        "Hilary",
		Surname:     "Ouse",
		Country:     "EE",
		PNO:         "PNOLT-41111117143",
		CurrentDate: 20231024,
		IsMockData:  true,
	}.ToDomain()
	require.NoError(t, err)
	return pd
}

func TestCircuitString(t *testing.T) {
	cs, err := NewCircuitString("EE")
	require.NoError(t, err)
	assert.Equal(t, "EE", cs.String())
	assert.Equal(t, 2, cs.Len())

	fields := cs.Fields()
	require.Len(t, fields, MaxStringLength)
	assert.Equal(t, uint64('E'), fields[0].Uint64())
	assert.True(t, fields[2].IsZero())

	_, err = NewCircuitString(strings.Repeat("a", MaxStringLength+1))
	assert.ErrorIs(t, err, ErrStringTooLong)

	_, err = NewCircuitString("a\x00b")
	assert.ErrorIs(t, err, ErrInvalidCharacter)

	_, err = NewCircuitString("名")
	assert.ErrorIs(t, err, ErrInvalidCharacter)

	full := MustCircuitString(strings.Repeat("z", MaxStringLength))
	assert.Equal(t, MaxStringLength, full.Len())
}

func TestPersonalDataFieldLayout(t *testing.T) {
	pd := mockPersonalData(t)
	fields := pd.Fields()

	require.Len(t, fields, PersonalDataFieldCount)
	assert.Equal(t, uint64('H'), fields[0].Uint64())
	assert.Equal(t, uint64('O'), fields[MaxStringLength].Uint64())
	assert.Equal(t, uint64('E'), fields[2*MaxStringLength].Uint64())
	assert.Equal(t, uint64('P'), fields[3*MaxStringLength].Uint64())
	assert.Equal(t, uint64(20231024), fields[4*MaxStringLength].Uint64())
	assert.Equal(t, uint64(1), fields[4*MaxStringLength+1].Uint64())
}

func TestFieldsDistinguishRecords(t *testing.T) {
	a := mockPersonalData(t)
	b := a
	assert.Equal(t, a.Fields(), b.Fields())
	assert.Equal(t, a.Digest(), b.Digest())

	// moving a character between adjacent strings must change the sequence
	b.Name = MustCircuitString("Hilar")
	b.Surname = MustCircuitString("yOuse")
	assert.NotEqual(t, a.Fields(), b.Fields())
	assert.NotEqual(t, a.Digest(), b.Digest())

	c := a
	c.IsMockData = false
	assert.NotEqual(t, a.Digest(), c.Digest())
}

func TestSanctionsFieldLayout(t *testing.T) {
	sd, err := SanctionsDataJson{MinScore: 95, CurrentDate: "2023-11-16"}.ToDomain()
	require.NoError(t, err)

	fields := sd.Fields()
	require.Len(t, fields, SanctionsDataFieldCount)
	assert.True(t, fields[0].IsZero())
	assert.Equal(t, uint64(95), fields[1].Uint64())
	assert.Equal(t, uint64('2'), fields[2].Uint64())
	assert.True(t, fields[SanctionsDataFieldCount-1].IsZero())
}

func TestPublicKeyEncoding(t *testing.T) {
	priv, err := eddsa.GenerateKey(rand.Reader)
	require.NoError(t, err)

	encoded := EncodePublicKey(priv.PublicKey)
	decoded, err := DecodePublicKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey.A, decoded.A)

	_, err = DecodePublicKey("not-base58-0OIl")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = DecodePublicKey("3mJr7AoUXx2Wqd")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func signPersonalData(t *testing.T, priv *eddsa.PrivateKey, pd PersonalData) []byte {
	t.Helper()
	sig, err := priv.Sign(DigestBytes(pd.Fields()), mimc.NewMiMC())
	require.NoError(t, err)
	return sig
}

func TestParseOracleResponse(t *testing.T) {
	priv, err := eddsa.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pd := mockPersonalData(t)
	sig := signPersonalData(t, priv, pd)

	raw, err := json.Marshal(OracleResponseJson[PersonalDataJson]{
		Data:      PersonalDataToJson(pd),
		Signature: SignatureJson{Raw: sig},
		PublicKey: EncodePublicKey(priv.PublicKey),
	})
	require.NoError(t, err)

	parsed, err := ParseOracleResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, pd, parsed.Data)
	assert.Equal(t, sig, parsed.Signature)

	ok, err := parsed.PublicKey.Verify(parsed.Signature, DigestBytes(parsed.Data.Fields()), mimc.NewMiMC())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseOracleResponseStructuredSignature(t *testing.T) {
	priv, err := eddsa.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pd := mockPersonalData(t)
	sig := signPersonalData(t, priv, pd)

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	raw := fmt.Sprintf(
		`{"data":{"name":"Hilary","surname":"Ouse","country":"EE","pno":"PNOLT-41111117143","currentDate":20231024,"isMockData":1},`+
			`"signature":{"r":"%s","s":"%s"},"publicKey":"%s"}`,
		r, s, EncodePublicKey(priv.PublicKey),
	)

	parsed, err := ParseOracleResponse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, sig, parsed.Signature)
	assert.True(t, parsed.Data.IsMockData)
}

func TestParseResponsesRejectMalformedInput(t *testing.T) {
	shortSig := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})

	for name, parse := range map[string]func([]byte) error{
		"personal": func(b []byte) error { _, err := ParseOracleResponse(b); return err },
		"sanctions": func(b []byte) error { _, err := ParseSanctionsResponse(b); return err },
		"secret": func(b []byte) error { _, err := ParseSecretResponse(b); return err },
	} {
		t.Run(name, func(t *testing.T) {
			for _, raw := range []string{
				`{`,
				`{"data":{},"secret":"x","signature":"` + shortSig + `"}`,
				`{"data":{"isMockData":7},"signature":{"r":"x","s":"1"}}`,
			} {
				err := parse([]byte(raw))
				require.Error(t, err, raw)
				assert.Equal(t, reasoncodes.ErrUnmarshal, reasoncodes.CodeOf(err, ""), raw)
			}
		})
	}
}

func TestParseSecretResponse(t *testing.T) {
	sig := base64.StdEncoding.EncodeToString(make([]byte, SignatureSize))
	parsed, err := ParseSecretResponse([]byte(`{"secret":"123abc","signature":"` + sig + `"}`))
	require.NoError(t, err)
	assert.Equal(t, "123abc", parsed.Data.Secret.String())
	assert.Len(t, parsed.Data.Fields(), MaxStringLength)
}

func TestFlagJson(t *testing.T) {
	for raw, want := range map[string]bool{`true`: true, `1`: true, `"1"`: true, `0`: false, `null`: false, `"false"`: false} {
		var f FlagJson
		require.NoError(t, json.Unmarshal([]byte(raw), &f), raw)
		assert.Equal(t, want, bool(f), raw)
	}
	var f FlagJson
	assert.Error(t, json.Unmarshal([]byte(`2`), &f))
}

const (
	passkeyID        = "qaJp7BwUkIObDyRE5o_xNg"
	passkeyPublicHex = "0x04f233d2c2db88ea7c936939cea21f22f1d308d3f527969f5e73ef49b47245d80c8abc0824030a31ee43dfba8419e5044f1f9e82d4e72d73b847b8ffd5f606d0a8"
	passkeyPayload   = "0xecaa80f4b8f73bec3100e49e601a9ffbf194d4d6b1610701aafdcc390a4ca953"
	passkeySignature = "0x708330e4d634d1446cd955272c514c9a2a963e5cb1bffc5185fd404f7a6ad794274c91e52ebfa9331ce79a558ec7477a38bf43c19463fc034a022311234fa840"
)

func TestPassKeysVector(t *testing.T) {
	pub, err := ParseDeviceKeyHex(passkeyPublicHex)
	require.NoError(t, err)
	payload, err := ParseChallengeHex(passkeyPayload)
	require.NoError(t, err)
	r, s, err := ParseDeviceSignatureHex(passkeySignature)
	require.NoError(t, err)

	pk := PassKeys{ID: passkeyID, PublicKey: pub, Payload: payload, R: r, S: s}

	id, err := pk.IDField()
	require.NoError(t, err)
	assert.Equal(t, "1139774112556611985107737998681218269531119512078103", id.String())

	assert.True(t, ecdsa.Verify(pk.PublicKey, pk.Payload[:], pk.R, pk.S))
}

func TestParseDeviceKeyRejectsOffCurvePoint(t *testing.T) {
	bad := "0x04" + strings.Repeat("01", 64)
	_, err := ParseDeviceKeyHex(bad)
	assert.True(t, errors.Is(err, ErrInvalidDeviceKey))
}

func TestASCIIDecimalBounds(t *testing.T) {
	n, err := ASCIIDecimal("ab")
	require.NoError(t, err)
	assert.Equal(t, int64(9798), n.Int64())

	_, err = ASCIIDecimal(strings.Repeat("z", 40))
	assert.ErrorIs(t, err, ErrDeviceIDTooLarge)
}
